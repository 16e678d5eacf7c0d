package models

import (
	"time"

	"gorm.io/gorm"
)

// Referral 转化归因记录
// 说明：order_id 全局唯一保证每笔订单至多归因一次；金额与比例创建后冻结，
// 重新计算只能新建记录。
type Referral struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                          // 主键
	AffiliateID      uint           `gorm:"not null;index" json:"affiliate_id"`                            // 归因合作伙伴
	VisitID          *uint          `gorm:"index" json:"visit_id,omitempty"`                               // 匹配到的点击记录
	OrderID          string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`         // 订单标识（唯一）
	OrderAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`     // 订单金额
	RatePercent      Money          `gorm:"type:decimal(10,2);not null;default:0" json:"rate_percent"`     // 当时适用的佣金比例
	CommissionAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"` // 计算出的佣金
	Status           string         `gorm:"type:varchar(20);not null;index" json:"status"`                 // 状态 pending/approved/rejected
	ConversionType   string         `gorm:"type:varchar(20);not null;index" json:"conversion_type"`        // 转化类型 subscription/one_time
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 合作伙伴
}

// TableName 指定表名
func (Referral) TableName() string {
	return "referrals"
}
