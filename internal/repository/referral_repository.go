package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// ReferralRepository 归因记录数据访问接口
type ReferralRepository interface {
	WithTx(tx *gorm.DB) ReferralRepository

	Create(referral *models.Referral) error
	GetByID(id uint) (*models.Referral, error)
	GetByOrderID(orderID string) (*models.Referral, error)
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	List(filter ReferralListFilter) ([]models.Referral, int64, error)
	CountByAffiliate(affiliateID uint, statuses []string) (int64, error)
	SumCommissionByAffiliate(affiliateID uint, statuses []string) (decimal.Decimal, error)
}

// GormReferralRepository GORM 归因记录仓储
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建归因记录仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Create 创建归因记录，order_id 唯一冲突原样返回由上层处理
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// GetByID 按ID获取归因记录
func (r *GormReferralRepository) GetByID(id uint) (*models.Referral, error) {
	if id == 0 {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Preload("Affiliate").First(&referral, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// GetByOrderID 按订单标识获取归因记录
func (r *GormReferralRepository) GetByOrderID(orderID string) (*models.Referral, error) {
	normalized := strings.TrimSpace(orderID)
	if normalized == "" {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Where("order_id = ?", normalized).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// UpdateStatus 更新归因记录状态
func (r *GormReferralRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Referral{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// List 查询归因记录列表
func (r *GormReferralRepository) List(filter ReferralListFilter) ([]models.Referral, int64, error) {
	query := r.db.Model(&models.Referral{}).Preload("Affiliate")
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if orderID := strings.TrimSpace(filter.OrderID); orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if ctype := strings.TrimSpace(filter.ConversionType); ctype != "" {
		query = query.Where("conversion_type = ?", ctype)
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

	var rows []models.Referral
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountByAffiliate 统计合作伙伴归因记录数
func (r *GormReferralRepository) CountByAffiliate(affiliateID uint, statuses []string) (int64, error) {
	if affiliateID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.Referral{}).Where("affiliate_id = ?", affiliateID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	} else {
		query = query.Where("status <> ?", constants.ReferralStatusRejected)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumCommissionByAffiliate 汇总合作伙伴归因佣金金额
func (r *GormReferralRepository) SumCommissionByAffiliate(affiliateID uint, statuses []string) (decimal.Decimal, error) {
	if affiliateID == 0 {
		return decimal.Zero, nil
	}
	query := r.db.Model(&models.Referral{}).Where("affiliate_id = ?", affiliateID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select("COALESCE(SUM(commission_amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
