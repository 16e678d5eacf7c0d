package repository

import (
	"errors"
	"strings"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository 佣金账目数据访问接口
type CommissionRepository interface {
	WithTx(tx *gorm.DB) CommissionRepository

	Create(commission *models.Commission) error
	Update(commission *models.Commission) error
	GetByID(id uint) (*models.Commission, error)
	GetByReferralID(referralID uint) (*models.Commission, error)
	ListUnpaidUnboundForUpdate(affiliateID uint) ([]models.Commission, error)
	ListByPayoutIDForUpdate(payoutID uint) ([]models.Commission, error)
	BatchUpdate(ids []uint, updates map[string]interface{}) error
	SumByAffiliate(affiliateID uint, statuses []string, unboundOnly bool) (decimal.Decimal, error)
	List(filter CommissionListFilter) ([]models.Commission, int64, error)
}

// GormCommissionRepository GORM 佣金账目仓储
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金账目仓储
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Create 创建佣金账目，referral_id 唯一冲突原样返回由上层处理
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// Update 更新佣金账目
func (r *GormCommissionRepository) Update(commission *models.Commission) error {
	return r.db.Save(commission).Error
}

// GetByID 按ID获取佣金账目
func (r *GormCommissionRepository) GetByID(id uint) (*models.Commission, error) {
	if id == 0 {
		return nil, nil
	}
	var commission models.Commission
	if err := r.db.First(&commission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// GetByReferralID 按归因记录获取佣金账目
func (r *GormCommissionRepository) GetByReferralID(referralID uint) (*models.Commission, error) {
	if referralID == 0 {
		return nil, nil
	}
	var commission models.Commission
	if err := r.db.Where("referral_id = ?", referralID).First(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// ListUnpaidUnboundForUpdate 查询并锁定未结清且未被提现占用的佣金，按入账顺序
func (r *GormCommissionRepository) ListUnpaidUnboundForUpdate(affiliateID uint) ([]models.Commission, error) {
	if affiliateID == 0 {
		return []models.Commission{}, nil
	}
	var rows []models.Commission
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("affiliate_id = ? AND status = ? AND payout_request_id IS NULL",
			affiliateID, constants.CommissionStatusUnpaid).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByPayoutIDForUpdate 按提现申请查询并锁定绑定的佣金
func (r *GormCommissionRepository) ListByPayoutIDForUpdate(payoutID uint) ([]models.Commission, error) {
	if payoutID == 0 {
		return []models.Commission{}, nil
	}
	var rows []models.Commission
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payout_request_id = ?", payoutID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BatchUpdate 批量更新佣金账目
func (r *GormCommissionRepository) BatchUpdate(ids []uint, updates map[string]interface{}) error {
	if len(ids) == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Commission{}).Where("id IN ?", ids).Updates(updates).Error
}

// SumByAffiliate 汇总指定状态佣金金额
func (r *GormCommissionRepository) SumByAffiliate(affiliateID uint, statuses []string, unboundOnly bool) (decimal.Decimal, error) {
	if affiliateID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	query := r.db.Model(&models.Commission{}).
		Where("affiliate_id = ? AND status IN ?", affiliateID, statuses)
	if unboundOnly {
		query = query.Where("payout_request_id IS NULL")
	}

	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// List 查询佣金账目列表
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.Commission, int64, error) {
	query := r.db.Model(&models.Commission{}).Preload("Affiliate")
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if ctype := strings.TrimSpace(filter.CommissionType); ctype != "" {
		query = query.Where("commission_type = ?", ctype)
	}
	if filter.PayoutRequestID != 0 {
		query = query.Where("payout_request_id = ?", filter.PayoutRequestID)
	}
	if filter.UnboundOnly {
		query = query.Where("payout_request_id IS NULL")
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

	var rows []models.Commission
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
