package service

import (
	"strings"

	"github.com/reflink-next/internal/logger"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/repository"

	"gorm.io/gorm"
)

// AuditService 审计日志服务
// 审计写入永远不阻断主操作：失败仅记录本地日志。
type AuditService struct {
	repo repository.AuditLogRepository
}

// NewAuditService 创建审计日志服务
func NewAuditService(repo repository.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

// AuditActor 审计操作者（系统操作传零值）
type AuditActor struct {
	ID    *uint
	Email string
	Role  string
}

// SystemActor 系统操作者
func SystemActor() AuditActor {
	return AuditActor{Role: "system"}
}

// Record 追加一条审计日志，尽力而为
func (s *AuditService) Record(actor AuditActor, action string, context map[string]interface{}, clientIP string) {
	s.record(nil, actor, action, context, clientIP)
}

// RecordTx 在事务内追加审计日志，写入失败不回滚事务
func (s *AuditService) RecordTx(tx *gorm.DB, actor AuditActor, action string, context map[string]interface{}, clientIP string) {
	s.record(tx, actor, action, context, clientIP)
}

func (s *AuditService) record(tx *gorm.DB, actor AuditActor, action string, context map[string]interface{}, clientIP string) {
	if s == nil || s.repo == nil {
		return
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return
	}
	entry := &models.AuditLogEntry{
		ActorID:     actor.ID,
		ActorEmail:  strings.TrimSpace(actor.Email),
		ActorRole:   strings.TrimSpace(actor.Role),
		Action:      action,
		ContextJSON: models.JSON(context),
		ClientIP:    strings.TrimSpace(clientIP),
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(entry); err != nil {
		logger.Warnw("审计日志写入失败",
			"action", action,
			"error", err,
		)
	}
}

// List 查询审计日志
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLogEntry, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuditLogEntry{}, 0, nil
	}
	return s.repo.List(filter)
}
