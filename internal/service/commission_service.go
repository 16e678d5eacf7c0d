package service

import (
	"strings"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionService 佣金入账服务
type CommissionService struct {
	repo             repository.CommissionRepository
	affiliateService *AffiliateService
}

// NewCommissionService 创建佣金入账服务
func NewCommissionService(repo repository.CommissionRepository, affiliateService *AffiliateService) *CommissionService {
	return &CommissionService{
		repo:             repo,
		affiliateService: affiliateService,
	}
}

// CommissionForTx 在事务内将归因记录物化为应付佣金
// referral_id 唯一约束保证同一归因至多入账一次：冲突时返回已有账目。
func (s *CommissionService) CommissionForTx(tx *gorm.DB, referral *models.Referral) (*models.Commission, error) {
	if referral == nil || referral.ID == 0 {
		return nil, ErrNotFound
	}
	repoTx := s.repo.WithTx(tx)

	referralID := referral.ID
	commission := &models.Commission{
		AffiliateID:    referral.AffiliateID,
		ReferralID:     &referralID,
		MemberRef:      referral.OrderID,
		Amount:         referral.CommissionAmount,
		CommissionType: commissionTypeForConversion(referral.ConversionType),
		Status:         constants.CommissionStatusUnpaid,
	}
	if err := repoTx.Create(commission); err != nil {
		if isUniqueViolation(err) {
			return repoTx.GetByReferralID(referral.ID)
		}
		return nil, err
	}

	if err := s.affiliateService.ApplyCommissionTx(tx, referral.AffiliateID, commission.Amount.Decimal); err != nil {
		return nil, err
	}
	return commission, nil
}

// RecordDirectCommission 录入与归因无关的佣金（人工录入、续费分成）
func (s *CommissionService) RecordDirectCommission(affiliateID uint, memberRef string, amount decimal.Decimal, commissionType string) (*models.Commission, error) {
	if s.affiliateService == nil {
		return nil, ErrNotFound
	}
	value := amount.Round(2)
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidInput
	}
	affiliate, err := s.affiliateService.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(affiliate.Status) != constants.AffiliateStatusActive {
		return nil, ErrAffiliateInactive
	}

	ctype := strings.TrimSpace(commissionType)
	if ctype != constants.CommissionTypeRecurring {
		ctype = constants.CommissionTypeOneTime
	}

	commission := &models.Commission{
		AffiliateID:    affiliate.ID,
		MemberRef:      strings.TrimSpace(memberRef),
		Amount:         models.NewMoneyFromDecimal(value),
		CommissionType: ctype,
		Status:         constants.CommissionStatusUnpaid,
	}
	err = s.affiliateService.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(commission); err != nil {
			return err
		}
		return s.affiliateService.ApplyCommissionTx(tx, affiliate.ID, value)
	})
	if err != nil {
		return nil, err
	}
	return commission, nil
}

// GetByReferralID 按归因记录查询佣金
func (s *CommissionService) GetByReferralID(referralID uint) (*models.Commission, error) {
	return s.repo.GetByReferralID(referralID)
}

// List 查询佣金账目
func (s *CommissionService) List(filter repository.CommissionListFilter) ([]models.Commission, int64, error) {
	if s.repo == nil {
		return []models.Commission{}, 0, nil
	}
	return s.repo.List(filter)
}

func commissionTypeForConversion(conversionType string) string {
	if strings.TrimSpace(conversionType) == constants.ConversionTypeSubscription {
		return constants.CommissionTypeRecurring
	}
	return constants.CommissionTypeOneTime
}
