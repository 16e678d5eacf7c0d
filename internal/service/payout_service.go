package service

import (
	"strings"
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/logger"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/queue"
	"github.com/reflink-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Authorizer 能力校验接口，由权限子系统实现并注入
type Authorizer interface {
	Authorize(actorID uint, object, action string) (bool, error)
}

// PayoutService 提现生命周期管理
// 状态机：requested → processing → completed/failed，或 requested → failed。
type PayoutService struct {
	repo             repository.PayoutRepository
	commissionRepo   repository.CommissionRepository
	affiliateService *AffiliateService
	auditService     *AuditService
	authorizer       Authorizer
	queueClient      *queue.Client
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	repo repository.PayoutRepository,
	commissionRepo repository.CommissionRepository,
	affiliateService *AffiliateService,
	auditService *AuditService,
	authorizer Authorizer,
	queueClient *queue.Client,
) *PayoutService {
	return &PayoutService{
		repo:             repo,
		commissionRepo:   commissionRepo,
		affiliateService: affiliateService,
		auditService:     auditService,
		authorizer:       authorizer,
		queueClient:      queueClient,
	}
}

// RequestPayout 合作伙伴申请提现
// 余额校验与占用在同一事务内完成：锁定档案行后按入账顺序绑定未结清佣金，
// 并发同额申请只会有一方成功，另一方收到 ErrInsufficientBalance。
func (s *PayoutService) RequestPayout(affiliateID uint, rawAmount decimal.Decimal, clientIP string) (*models.PayoutRequest, error) {
	if s.repo == nil || s.affiliateService == nil {
		return nil, ErrNotFound
	}
	amount := rawAmount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPayoutAmountInvalid
	}
	setting, err := s.affiliateService.Setting()
	if err != nil {
		return nil, err
	}
	minAmount := decimal.NewFromFloat(setting.MinPayoutAmount).Round(2)
	if amount.LessThan(minAmount) {
		return nil, ErrPayoutAmountInvalid
	}

	var createdID uint
	err = s.affiliateService.repo.Transaction(func(tx *gorm.DB) error {
		affiliateRepoTx := s.affiliateService.repo.WithTx(tx)
		affiliate, err := affiliateRepoTx.GetByIDForUpdate(affiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrNotFound
		}
		if strings.TrimSpace(affiliate.Status) != constants.AffiliateStatusActive {
			return ErrAffiliateInactive
		}

		commissionRepoTx := s.commissionRepo.WithTx(tx)
		commissions, err := commissionRepoTx.ListUnpaidUnboundForUpdate(affiliate.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		remaining := amount
		selectedIDs := make([]uint, 0)
		for _, commission := range commissions {
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
			rowAmount := commission.Amount.Decimal.Round(2)
			if rowAmount.LessThanOrEqual(decimal.Zero) {
				continue
			}
			if rowAmount.LessThanOrEqual(remaining) {
				selectedIDs = append(selectedIDs, commission.ID)
				remaining = remaining.Sub(rowAmount).Round(2)
				continue
			}

			// 尾行金额大于申请剩余时拆分，避免超额占用。
			// 拆出的余量行不携带 referral_id（唯一约束留在被占用行上）。
			boundAmount := remaining.Round(2)
			remainAmount := rowAmount.Sub(boundAmount).Round(2)
			commission.Amount = models.NewMoneyFromDecimal(boundAmount)
			commission.UpdatedAt = now
			if err := commissionRepoTx.Update(&commission); err != nil {
				return err
			}

			remainder := commission
			remainder.ID = 0
			remainder.ReferralID = nil
			remainder.Amount = models.NewMoneyFromDecimal(remainAmount)
			remainder.PayoutRequestID = nil
			remainder.Status = constants.CommissionStatusUnpaid
			remainder.CreatedAt = now
			remainder.UpdatedAt = now
			if err := commissionRepoTx.Create(&remainder); err != nil {
				return err
			}

			selectedIDs = append(selectedIDs, commission.ID)
			remaining = decimal.Zero
			break
		}
		if remaining.GreaterThan(decimal.Zero) {
			return ErrInsufficientBalance
		}

		req := &models.PayoutRequest{
			AffiliateID: affiliate.ID,
			Amount:      models.NewMoneyFromDecimal(amount),
			Status:      constants.PayoutStatusRequested,
			RequestedAt: now,
		}
		if err := s.repo.WithTx(tx).Create(req); err != nil {
			return err
		}
		if err := commissionRepoTx.BatchUpdate(selectedIDs, map[string]interface{}{
			"payout_request_id": req.ID,
			"updated_at":        now,
		}); err != nil {
			return err
		}
		if err := affiliateRepoTx.UpdateCachedTotals(affiliate.ID, map[string]interface{}{
			"available_balance": gorm.Expr("available_balance - ?", amount),
			"updated_at":        now,
		}); err != nil {
			return err
		}

		actorID := affiliate.ID
		s.auditService.RecordTx(tx, AuditActor{ID: &actorID, Email: affiliate.Email, Role: "affiliate"},
			constants.AuditActionPayoutRequested,
			map[string]interface{}{
				"payout_id":    req.ID,
				"affiliate_id": affiliate.ID,
				"amount":       amount.StringFixed(2),
			},
			clientIP,
		)
		createdID = req.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(createdID)
}

// Advance 推进提现状态，仅允许单调流转：
// requested → processing / failed，processing → completed / failed。
func (s *PayoutService) Advance(actor AuditActor, payoutID uint, newStatus, reason string, completedAt *time.Time, clientIP string) (*models.PayoutRequest, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	if s.authorizer != nil && actor.ID != nil {
		allowed, err := s.authorizer.Authorize(*actor.ID, "payout", "advance")
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrPermissionDenied
		}
	}

	nextStatus := strings.TrimSpace(newStatus)
	switch nextStatus {
	case constants.PayoutStatusProcessing, constants.PayoutStatusCompleted, constants.PayoutStatusFailed:
	default:
		return nil, ErrInvalidTransition
	}

	var notifyStatus string
	err := s.affiliateService.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		req, err := repoTx.GetByIDForUpdate(payoutID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrNotFound
		}
		if !payoutTransitionAllowed(req.Status, nextStatus) {
			return ErrInvalidTransition
		}

		now := time.Now()
		commissionRepoTx := s.commissionRepo.WithTx(tx)
		auditAction := constants.AuditActionPayoutProcessing

		switch nextStatus {
		case constants.PayoutStatusCompleted:
			done := now
			if completedAt != nil {
				done = *completedAt
			}
			req.CompletedAt = &done
			auditAction = constants.AuditActionPayoutCompleted

			commissions, err := commissionRepoTx.ListByPayoutIDForUpdate(req.ID)
			if err != nil {
				return err
			}
			ids := make([]uint, 0, len(commissions))
			for _, commission := range commissions {
				ids = append(ids, commission.ID)
			}
			if err := commissionRepoTx.BatchUpdate(ids, map[string]interface{}{
				"status":     constants.CommissionStatusPaid,
				"paid_at":    done,
				"updated_at": now,
			}); err != nil {
				return err
			}
			notifyStatus = constants.PayoutStatusCompleted

		case constants.PayoutStatusFailed:
			req.FailureReason = strings.TrimSpace(reason)
			auditAction = constants.AuditActionPayoutFailed

			// 解绑佣金并恢复可提现余额。
			commissions, err := commissionRepoTx.ListByPayoutIDForUpdate(req.ID)
			if err != nil {
				return err
			}
			ids := make([]uint, 0, len(commissions))
			for _, commission := range commissions {
				ids = append(ids, commission.ID)
			}
			if err := commissionRepoTx.BatchUpdate(ids, map[string]interface{}{
				"payout_request_id": nil,
				"updated_at":        now,
			}); err != nil {
				return err
			}
			if err := s.affiliateService.repo.WithTx(tx).UpdateCachedTotals(req.AffiliateID, map[string]interface{}{
				"available_balance": gorm.Expr("available_balance + ?", req.Amount.Decimal.Round(2)),
				"updated_at":        now,
			}); err != nil {
				return err
			}
			notifyStatus = constants.PayoutStatusFailed
		}

		req.Status = nextStatus
		req.UpdatedAt = now
		if err := repoTx.Update(req); err != nil {
			return err
		}

		s.auditService.RecordTx(tx, actor, auditAction,
			map[string]interface{}{
				"payout_id":    req.ID,
				"affiliate_id": req.AffiliateID,
				"amount":       req.Amount.Decimal.StringFixed(2),
				"status":       nextStatus,
			},
			clientIP,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	req, err := s.repo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	if notifyStatus != "" && req != nil {
		s.enqueueStatusEmail(req)
	}
	return req, nil
}

// List 查询提现申请
func (s *PayoutService) List(filter repository.PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	if s.repo == nil {
		return []models.PayoutRequest{}, 0, nil
	}
	return s.repo.List(filter)
}

// GetByID 按ID查询提现申请
func (s *PayoutService) GetByID(id uint) (*models.PayoutRequest, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// enqueueStatusEmail 状态通知尽力而为，失败不影响提现主流程
func (s *PayoutService) enqueueStatusEmail(req *models.PayoutRequest) {
	if s.queueClient == nil || req == nil {
		return
	}
	if err := s.queueClient.EnqueuePayoutStatusEmail(queue.PayoutStatusEmailPayload{
		PayoutID: req.ID,
		Status:   req.Status,
	}); err != nil {
		logger.Warnw("提现状态通知入队失败",
			"payout_id", req.ID,
			"status", req.Status,
			"error", err,
		)
	}
}

func payoutTransitionAllowed(current, next string) bool {
	switch strings.TrimSpace(current) {
	case constants.PayoutStatusRequested:
		return next == constants.PayoutStatusProcessing || next == constants.PayoutStatusFailed
	case constants.PayoutStatusProcessing:
		return next == constants.PayoutStatusCompleted || next == constants.PayoutStatusFailed
	default:
		// completed / failed 为终态。
		return false
	}
}
