package models

import (
	"time"

	"gorm.io/gorm"
)

// Affiliate 推广合作伙伴档案
// 说明：total_* 与 available_balance 为缓存聚合值，账本以 Commission/Referral/Visit 为准。
type Affiliate struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Name              string         `gorm:"type:varchar(120);not null" json:"name"`                        // 合作伙伴名称
	Email             string         `gorm:"type:varchar(255);not null;index" json:"email"`                 // 联系邮箱
	AffiliateCode     string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"affiliate_code"`   // 推广码（唯一且不可变）
	Status            string         `gorm:"type:varchar(20);not null;index" json:"status"`                 // 状态 pending/active/suspended/rejected
	CommissionRate    *Money         `gorm:"type:decimal(10,2)" json:"commission_rate,omitempty"`           // 佣金比例覆盖（百分比，空时用全局默认）
	PayoutMethod      string         `gorm:"type:varchar(40);not null;default:''" json:"payout_method"`     // 结算方式
	PayoutDestination string         `gorm:"type:varchar(255);not null;default:''" json:"payout_dest"`      // 结算账号
	TotalEarnings     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`   // 累计佣金（缓存）
	TotalReferrals    int64          `gorm:"not null;default:0" json:"total_referrals"`                     // 累计成交数（缓存）
	TotalVisits       int64          `gorm:"not null;default:0" json:"total_visits"`                        // 累计点击数（缓存）
	AvailableBalance  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"available_balance"` // 可提现余额（缓存）
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (Affiliate) TableName() string {
	return "affiliates"
}
