package models

import "time"

// Visit 携带推广码的入站点击记录
// 仅追加；converted 是唯一会被修改的字段，由归因引擎单向置为 true。
type Visit struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                       // 主键
	AffiliateID uint      `gorm:"not null;index" json:"affiliate_id"`                         // 所属合作伙伴
	LinkID      *uint     `gorm:"index" json:"link_id,omitempty"`                             // 来源推广链接变体
	Referrer    string    `gorm:"type:varchar(1024)" json:"referrer"`                         // 来源地址
	UserAgent   string    `gorm:"type:varchar(1024)" json:"user_agent"`                       // 客户端UA
	Country     string    `gorm:"type:varchar(8)" json:"country"`                             // 国家代码
	DeviceType  string    `gorm:"type:varchar(32)" json:"device_type"`                        // 设备类型
	ClientIP    string    `gorm:"type:varchar(64)" json:"client_ip"`                          // 客户端IP
	Converted   bool      `gorm:"not null;default:false;index" json:"converted"`              // 是否已转化
	CreatedAt   time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 点击时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 合作伙伴
}

// TableName 指定表名
func (Visit) TableName() string {
	return "visits"
}
