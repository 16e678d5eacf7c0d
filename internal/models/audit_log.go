package models

import "time"

// AuditLogEntry 审计日志
// 说明：仅追加、不可修改删除；记录所有资金与敏感操作，但余额以账本为准。
type AuditLogEntry struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                       // 主键
	ActorID    *uint     `gorm:"index" json:"actor_id,omitempty"`                            // 操作者ID（系统操作为空）
	ActorEmail string    `gorm:"type:varchar(255);index;not null;default:''" json:"actor_email"` // 操作者邮箱
	ActorRole  string    `gorm:"type:varchar(40);index;not null;default:''" json:"actor_role"`   // 操作者角色
	Action     string    `gorm:"type:varchar(100);index;not null" json:"action"`             // 动作名称
	ContextJSON JSON     `gorm:"type:json" json:"context"`                                   // 动作上下文
	ClientIP   string    `gorm:"type:varchar(64);not null;default:''" json:"client_ip"`      // 来源IP
	CreatedAt  time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 发生时间
}

// TableName 指定表名
func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}
