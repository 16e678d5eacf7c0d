package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateListFilter 查询合作伙伴列表的过滤条件
type AffiliateListFilter struct {
	Page        int
	PageSize    int
	Status      string
	Code        string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// VisitListFilter 查询点击记录列表的过滤条件
type VisitListFilter struct {
	Page        int
	PageSize    int
	AffiliateID uint
	LinkID      uint
	Converted   *bool
	Country     string
	DeviceType  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReferralListFilter 查询归因记录列表的过滤条件
type ReferralListFilter struct {
	Page           int
	PageSize       int
	AffiliateID    uint
	OrderID        string
	Status         string
	ConversionType string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// CommissionListFilter 查询佣金账目列表的过滤条件
type CommissionListFilter struct {
	Page            int
	PageSize        int
	AffiliateID     uint
	Status          string
	CommissionType  string
	PayoutRequestID uint
	UnboundOnly     bool
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// PayoutListFilter 查询提现申请列表的过滤条件
type PayoutListFilter struct {
	Page        int
	PageSize    int
	AffiliateID uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuditLogListFilter 查询审计日志列表的过滤条件
type AuditLogListFilter struct {
	Page        int
	PageSize    int
	ActorID     uint
	ActorEmail  string
	Action      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AffiliateStatsAggregate 合作伙伴账本聚合值（用于缓存校准与对账）
type AffiliateStatsAggregate struct {
	VisitCount       int64
	ReferralCount    int64
	TotalCommission  decimal.Decimal
	UnpaidCommission decimal.Decimal
	PaidCommission   decimal.Decimal
}

// LeaderboardAggregate 排行榜单条聚合值
type LeaderboardAggregate struct {
	AffiliateID   uint            `gorm:"column:affiliate_id"`
	TotalEarnings decimal.Decimal `gorm:"column:total_earnings"`
	ReferralCount int64           `gorm:"column:referral_count"`
}
