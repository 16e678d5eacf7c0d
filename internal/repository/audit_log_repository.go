package repository

import (
	"strings"

	"github.com/reflink-next/internal/models"

	"gorm.io/gorm"
)

// AuditLogRepository 审计日志数据访问接口（仅追加）
type AuditLogRepository interface {
	WithTx(tx *gorm.DB) AuditLogRepository

	Create(entry *models.AuditLogEntry) error
	List(filter AuditLogListFilter) ([]models.AuditLogEntry, int64, error)
}

// GormAuditLogRepository GORM 实现
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓库
func NewAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAuditLogRepository) WithTx(tx *gorm.DB) AuditLogRepository {
	if tx == nil {
		return r
	}
	return &GormAuditLogRepository{db: tx}
}

// Create 创建审计日志
func (r *GormAuditLogRepository) Create(entry *models.AuditLogEntry) error {
	if entry == nil {
		return nil
	}
	return r.db.Create(entry).Error
}

// List 查询审计日志列表
func (r *GormAuditLogRepository) List(filter AuditLogListFilter) ([]models.AuditLogEntry, int64, error) {
	query := r.db.Model(&models.AuditLogEntry{})
	if filter.ActorID != 0 {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if email := strings.TrimSpace(filter.ActorEmail); email != "" {
		query = query.Where("actor_email = ?", email)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	logs := make([]models.AuditLogEntry, 0)
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
