package models

import (
	"time"

	"gorm.io/gorm"
)

// Commission 应付佣金账目
// 说明：referral_id 唯一索引防止同一归因记录重复入账；payout_request_id
// 表示该笔佣金已被某提现申请占用。
type Commission struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                 // 主键
	AffiliateID     uint           `gorm:"not null;index" json:"affiliate_id"`                   // 合作伙伴
	ReferralID      *uint          `gorm:"uniqueIndex" json:"referral_id,omitempty"`             // 来源归因记录（唯一）
	MemberRef       string         `gorm:"type:varchar(64);not null;default:''" json:"member_ref"` // 会员/订单引用
	Amount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`  // 佣金金额（非负）
	CommissionType  string         `gorm:"type:varchar(20);not null;index" json:"commission_type"` // 类型 one_time/recurring
	Status          string         `gorm:"type:varchar(20);not null;index" json:"status"`        // 状态 unpaid/paid
	PayoutRequestID *uint          `gorm:"index" json:"payout_request_id,omitempty"`             // 绑定的提现申请
	PaidAt          *time.Time     `gorm:"index" json:"paid_at,omitempty"`                       // 结清时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 合作伙伴
	Referral  *Referral `gorm:"foreignKey:ReferralID" json:"referral,omitempty"`   // 归因记录
}

// TableName 指定表名
func (Commission) TableName() string {
	return "commissions"
}
