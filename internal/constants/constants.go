package constants

// 合作伙伴状态常量
const (
	AffiliateStatusPending   = "pending"
	AffiliateStatusActive    = "active"
	AffiliateStatusSuspended = "suspended"
	AffiliateStatusRejected  = "rejected"
)

// 归因记录状态常量
const (
	ReferralStatusPending  = "pending"
	ReferralStatusApproved = "approved"
	ReferralStatusRejected = "rejected"
)

// 转化类型常量
const (
	ConversionTypeSubscription = "subscription"
	ConversionTypeOneTime      = "one_time"
)

// 佣金类型常量
const (
	CommissionTypeOneTime   = "one_time"
	CommissionTypeRecurring = "recurring"
)

// 佣金状态常量
const (
	CommissionStatusUnpaid = "unpaid"
	CommissionStatusPaid   = "paid"
)

// 提现申请状态常量
const (
	PayoutStatusRequested  = "requested"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

// 归因策略常量
const (
	AttributionPolicyLastTouch  = "last_touch"
	AttributionPolicyFirstTouch = "first_touch"
)

// 排行榜排序指标常量
const (
	LeaderboardMetricEarnings  = "total_earnings"
	LeaderboardMetricReferrals = "total_referrals"
)

// 审计动作常量
const (
	AuditActionAffiliateRegistered = "affiliate_registered"
	AuditActionAffiliateStatus     = "affiliate_status_changed"
	AuditActionReferralCreated     = "referral_created"
	AuditActionReferralReviewed    = "referral_reviewed"
	AuditActionPayoutRequested     = "payout_requested"
	AuditActionPayoutProcessing    = "payout_processing"
	AuditActionPayoutCompleted     = "payout_completed"
	AuditActionPayoutFailed        = "payout_failed"
	AuditActionLeaderboardRebuilt  = "leaderboard_rebuilt"
	AuditActionTotalsReconciled    = "totals_reconciled"
)

// 队列与任务常量
const (
	QueueDefault           = "default"
	TaskPayoutStatusEmail  = "payout:status_email"
	TaskLeaderboardRebuild = "leaderboard:rebuild"
	TaskTotalsReconcile    = "totals:reconcile"
)

// 设置键常量
const (
	SettingKeyAffiliateConfig     = "affiliate_config"
	SettingKeyLeaderboardSnapshot = "leaderboard_snapshot"
)

// 设置字段常量
const (
	SettingFieldLastLeaderboardUpdate = "last_leaderboard_update"
)
