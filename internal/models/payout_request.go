package models

import (
	"time"

	"gorm.io/gorm"
)

// PayoutRequest 提现申请
// 状态机：requested → processing → completed/failed，或 requested → failed；
// 终态不可再变更。
type PayoutRequest struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                // 主键
	AffiliateID   uint           `gorm:"not null;index" json:"affiliate_id"`                  // 合作伙伴
	Amount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 申请金额
	Status        string         `gorm:"type:varchar(20);not null;index" json:"status"`       // 状态 requested/processing/completed/failed
	FailureReason string         `gorm:"type:varchar(255);not null;default:''" json:"failure_reason"` // 失败原因
	RequestedAt   time.Time      `gorm:"index;not null" json:"requested_at"`                  // 申请时间
	CompletedAt   *time.Time     `gorm:"index" json:"completed_at,omitempty"`                 // 完成时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 合作伙伴
}

// TableName 指定表名
func (PayoutRequest) TableName() string {
	return "payout_requests"
}
