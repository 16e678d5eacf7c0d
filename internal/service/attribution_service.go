package service

import (
	"strings"
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AttributionService 转化归因引擎
type AttributionService struct {
	referralRepo      repository.ReferralRepository
	visitRepo         repository.VisitRepository
	affiliateService  *AffiliateService
	commissionService *CommissionService
	auditService      *AuditService
}

// NewAttributionService 创建归因引擎
func NewAttributionService(
	referralRepo repository.ReferralRepository,
	visitRepo repository.VisitRepository,
	affiliateService *AffiliateService,
	commissionService *CommissionService,
	auditService *AuditService,
) *AttributionService {
	return &AttributionService{
		referralRepo:      referralRepo,
		visitRepo:         visitRepo,
		affiliateService:  affiliateService,
		commissionService: commissionService,
		auditService:      auditService,
	}
}

// ConversionInput 转化事件输入
type ConversionInput struct {
	ReferralCode   string
	OrderID        string
	OrderAmount    decimal.Decimal
	ConversionType string
	ClientIP       string
}

// AttributionResult 归因结果
// Attributed 为 false 表示自然转化（无归因），这不是错误。
type AttributionResult struct {
	Attributed bool               `json:"attributed"`
	Referral   *models.Referral   `json:"referral,omitempty"`
	Commission *models.Commission `json:"commission,omitempty"`
}

// Attribute 将转化事件归因到合作伙伴，并为每个 order_id 至多产生一条归因记录。
// 并发重复提交时，唯一约束落败方回读胜者记录返回。
func (s *AttributionService) Attribute(input ConversionInput) (AttributionResult, error) {
	result := AttributionResult{}
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return result, ErrConversionInvalid
	}
	amount := input.OrderAmount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return result, ErrConversionInvalid
	}
	conversionType := strings.TrimSpace(input.ConversionType)
	if conversionType != constants.ConversionTypeSubscription {
		conversionType = constants.ConversionTypeOneTime
	}

	// 幂等：同一订单已归因则直接返回已有记录。
	existing, err := s.referralRepo.GetByOrderID(orderID)
	if err != nil {
		return result, err
	}
	if existing != nil {
		return s.buildExistingResult(existing)
	}

	code := strings.TrimSpace(input.ReferralCode)
	if code == "" {
		return result, nil
	}
	affiliate, _, err := s.affiliateService.ResolveCode(code)
	if err != nil {
		// 无法解析的推广码按自然转化处理，不向转化方抛错。
		if err == ErrUnknownReferralCode {
			return result, nil
		}
		return result, err
	}
	if strings.TrimSpace(affiliate.Status) != constants.AffiliateStatusActive {
		return result, nil
	}

	setting, err := s.affiliateService.Setting()
	if err != nil {
		return result, err
	}
	rate := s.affiliateService.CommissionRateFor(affiliate, setting)
	commissionAmount := amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)

	status := constants.ReferralStatusApproved
	if setting.ManualReview {
		status = constants.ReferralStatusPending
	}
	window := time.Duration(setting.AttributionWindowDays) * 24 * time.Hour

	var referral *models.Referral
	var commission *models.Commission
	err = s.affiliateService.repo.Transaction(func(tx *gorm.DB) error {
		visitRepoTx := s.visitRepo.WithTx(tx)

		// 窗口内同一合作伙伴存在多条未转化点击时按策略取最近/最早一条。
		visit, err := visitRepoTx.GetAttributableForUpdate(affiliate.ID, time.Now().Add(-window), setting.AttributionPolicy)
		if err != nil {
			return err
		}

		referral = &models.Referral{
			AffiliateID:      affiliate.ID,
			OrderID:          orderID,
			OrderAmount:      models.NewMoneyFromDecimal(amount),
			RatePercent:      models.NewMoneyFromDecimal(rate),
			CommissionAmount: models.NewMoneyFromDecimal(commissionAmount),
			Status:           status,
			ConversionType:   conversionType,
		}
		if visit != nil {
			visitID := visit.ID
			referral.VisitID = &visitID
		}
		if err := s.referralRepo.WithTx(tx).Create(referral); err != nil {
			return err
		}

		if visit != nil {
			if _, err := visitRepoTx.MarkConverted(visit.ID); err != nil {
				return err
			}
		}

		if status == constants.ReferralStatusApproved {
			created, err := s.commissionService.CommissionForTx(tx, referral)
			if err != nil {
				return err
			}
			commission = created
		}
		return s.affiliateService.ApplyReferralTx(tx, affiliate.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			winner, readErr := s.referralRepo.GetByOrderID(orderID)
			if readErr != nil {
				return result, readErr
			}
			if winner != nil {
				return s.buildExistingResult(winner)
			}
		}
		return result, err
	}

	s.auditService.Record(SystemActor(), constants.AuditActionReferralCreated,
		map[string]interface{}{
			"referral_id":       referral.ID,
			"affiliate_id":      affiliate.ID,
			"order_id":          orderID,
			"order_amount":      amount.StringFixed(2),
			"commission_amount": commissionAmount.StringFixed(2),
			"status":            status,
		},
		input.ClientIP,
	)

	result.Attributed = true
	result.Referral = referral
	result.Commission = commission
	return result, nil
}

// ReviewReferral 审核待定归因记录：pending → approved/rejected
// 审核通过时才物化佣金。
func (s *AttributionService) ReviewReferral(actor AuditActor, referralID uint, approve bool, clientIP string) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(referralID)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrNotFound
	}
	if referral.Status != constants.ReferralStatusPending {
		return nil, ErrReferralStatusInvalid
	}

	nextStatus := constants.ReferralStatusRejected
	if approve {
		nextStatus = constants.ReferralStatusApproved
	}

	err = s.affiliateService.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.referralRepo.WithTx(tx).UpdateStatus(referral.ID, nextStatus, time.Now()); err != nil {
			return err
		}
		if !approve {
			// 驳回后成交计数回退，保持缓存与账本口径一致。
			return s.affiliateService.repo.WithTx(tx).UpdateCachedTotals(referral.AffiliateID, map[string]interface{}{
				"total_referrals": gorm.Expr("total_referrals - 1"),
				"updated_at":      time.Now(),
			})
		}
		referral.Status = nextStatus
		_, err := s.commissionService.CommissionForTx(tx, referral)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditService.Record(actor, constants.AuditActionReferralReviewed,
		map[string]interface{}{
			"referral_id": referral.ID,
			"order_id":    referral.OrderID,
			"status":      nextStatus,
		},
		clientIP,
	)
	return s.referralRepo.GetByID(referral.ID)
}

// GetByOrderID 按订单标识查询归因记录
func (s *AttributionService) GetByOrderID(orderID string) (*models.Referral, error) {
	return s.referralRepo.GetByOrderID(orderID)
}

// List 查询归因记录
func (s *AttributionService) List(filter repository.ReferralListFilter) ([]models.Referral, int64, error) {
	if s.referralRepo == nil {
		return []models.Referral{}, 0, nil
	}
	return s.referralRepo.List(filter)
}

func (s *AttributionService) buildExistingResult(referral *models.Referral) (AttributionResult, error) {
	result := AttributionResult{
		Attributed: true,
		Referral:   referral,
	}
	commission, err := s.commissionService.GetByReferralID(referral.ID)
	if err != nil {
		return result, err
	}
	result.Commission = commission
	return result, nil
}
