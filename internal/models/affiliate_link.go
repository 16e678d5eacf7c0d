package models

import "time"

// AffiliateLink 推广码的具名变体（用于渠道归因，如 "Facebook Campaign"）
// 创建后只允许重命名。
type AffiliateLink struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                 // 主键
	AffiliateID uint      `gorm:"not null;index" json:"affiliate_id"`                   // 所属合作伙伴
	Name        string    `gorm:"type:varchar(120);not null" json:"name"`               // 渠道名称
	LinkCode    string    `gorm:"type:varchar(48);not null;uniqueIndex" json:"link_code"` // 变体推广码（唯一）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                              // 更新时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 合作伙伴
}

// TableName 指定表名
func (AffiliateLink) TableName() string {
	return "affiliate_links"
}
