package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AffiliateRepository 合作伙伴数据访问接口
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetByID(id uint) (*models.Affiliate, error)
	GetByIDForUpdate(id uint) (*models.Affiliate, error)
	GetByCode(code string) (*models.Affiliate, error)
	GetActiveByCode(code string) (*models.Affiliate, error)
	Create(affiliate *models.Affiliate) error
	Update(affiliate *models.Affiliate) error
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	UpdateCachedTotals(id uint, updates map[string]interface{}) error
	List(filter AffiliateListFilter) ([]models.Affiliate, int64, error)
	GetStatsBatch(affiliateIDs []uint) (map[uint]AffiliateStatsAggregate, error)
	AggregateLeaderboard(metric string, limit int) ([]LeaderboardAggregate, error)
}

// GormAffiliateRepository GORM 合作伙伴仓储
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository 创建合作伙伴仓储
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取合作伙伴
func (r *GormAffiliateRepository) GetByID(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByIDForUpdate 按ID锁定获取合作伙伴
func (r *GormAffiliateRepository) GetByIDForUpdate(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByCode 按推广码获取合作伙伴（不限状态）
func (r *GormAffiliateRepository) GetByCode(code string) (*models.Affiliate, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.Where("affiliate_code = ?", normalized).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetActiveByCode 按推广码获取激活状态的合作伙伴
func (r *GormAffiliateRepository) GetActiveByCode(code string) (*models.Affiliate, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var affiliate models.Affiliate
	err := r.db.Where("affiliate_code = ? AND status = ?", normalized, constants.AffiliateStatusActive).
		First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// Create 创建合作伙伴，推广码唯一冲突原样返回由上层重试
func (r *GormAffiliateRepository) Create(affiliate *models.Affiliate) error {
	return r.db.Create(affiliate).Error
}

// Update 更新合作伙伴
func (r *GormAffiliateRepository) Update(affiliate *models.Affiliate) error {
	return r.db.Save(affiliate).Error
}

// UpdateStatus 更新合作伙伴状态
func (r *GormAffiliateRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// UpdateCachedTotals 更新缓存聚合列（total_* / available_balance）
func (r *GormAffiliateRepository) UpdateCachedTotals(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Affiliate{}).Where("id = ?", id).Updates(updates).Error
}

// List 查询合作伙伴列表
func (r *GormAffiliateRepository) List(filter AffiliateListFilter) ([]models.Affiliate, int64, error) {
	query := r.db.Model(&models.Affiliate{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where("affiliate_code = ?", strings.ToUpper(code))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("(name LIKE ? OR email LIKE ? OR affiliate_code LIKE ?)", like, like, like)
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

	var rows []models.Affiliate
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetStatsBatch 批量汇总合作伙伴账本数据
func (r *GormAffiliateRepository) GetStatsBatch(affiliateIDs []uint) (map[uint]AffiliateStatsAggregate, error) {
	result := make(map[uint]AffiliateStatsAggregate, len(affiliateIDs))
	if len(affiliateIDs) == 0 {
		return result, nil
	}

	for _, id := range affiliateIDs {
		if id == 0 {
			continue
		}
		result[id] = AffiliateStatsAggregate{
			TotalCommission:  decimal.Zero,
			UnpaidCommission: decimal.Zero,
			PaidCommission:   decimal.Zero,
		}
	}

	var visitRows []struct {
		AffiliateID uint  `gorm:"column:affiliate_id"`
		Total       int64 `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Visit{}).
		Select("affiliate_id, COUNT(*) AS total").
		Where("affiliate_id IN ?", affiliateIDs).
		Group("affiliate_id").
		Scan(&visitRows).Error; err != nil {
		return nil, err
	}
	for _, row := range visitRows {
		item := result[row.AffiliateID]
		item.VisitCount = row.Total
		result[row.AffiliateID] = item
	}

	var referralRows []struct {
		AffiliateID uint  `gorm:"column:affiliate_id"`
		Total       int64 `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Referral{}).
		Select("affiliate_id, COUNT(*) AS total").
		Where("affiliate_id IN ? AND status <> ?", affiliateIDs, constants.ReferralStatusRejected).
		Group("affiliate_id").
		Scan(&referralRows).Error; err != nil {
		return nil, err
	}
	for _, row := range referralRows {
		item := result[row.AffiliateID]
		item.ReferralCount = row.Total
		result[row.AffiliateID] = item
	}

	var totalRows []struct {
		AffiliateID uint            `gorm:"column:affiliate_id"`
		Total       decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Commission{}).
		Select("affiliate_id, COALESCE(SUM(amount), 0) AS total").
		Where("affiliate_id IN ?", affiliateIDs).
		Group("affiliate_id").
		Scan(&totalRows).Error; err != nil {
		return nil, err
	}
	for _, row := range totalRows {
		item := result[row.AffiliateID]
		item.TotalCommission = row.Total.Round(2)
		result[row.AffiliateID] = item
	}

	var unpaidRows []struct {
		AffiliateID uint            `gorm:"column:affiliate_id"`
		Total       decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Commission{}).
		Select("affiliate_id, COALESCE(SUM(amount), 0) AS total").
		Where("affiliate_id IN ? AND status = ? AND payout_request_id IS NULL",
			affiliateIDs,
			constants.CommissionStatusUnpaid,
		).
		Group("affiliate_id").
		Scan(&unpaidRows).Error; err != nil {
		return nil, err
	}
	for _, row := range unpaidRows {
		item := result[row.AffiliateID]
		item.UnpaidCommission = row.Total.Round(2)
		result[row.AffiliateID] = item
	}

	var paidRows []struct {
		AffiliateID uint            `gorm:"column:affiliate_id"`
		Total       decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Commission{}).
		Select("affiliate_id, COALESCE(SUM(amount), 0) AS total").
		Where("affiliate_id IN ? AND status = ?", affiliateIDs, constants.CommissionStatusPaid).
		Group("affiliate_id").
		Scan(&paidRows).Error; err != nil {
		return nil, err
	}
	for _, row := range paidRows {
		item := result[row.AffiliateID]
		item.PaidCommission = row.Total.Round(2)
		result[row.AffiliateID] = item
	}

	return result, nil
}

// AggregateLeaderboard 按指标汇总激活合作伙伴的排行数据
func (r *GormAffiliateRepository) AggregateLeaderboard(metric string, limit int) ([]LeaderboardAggregate, error) {
	if limit <= 0 {
		limit = 10
	}

	query := r.db.Model(&models.Affiliate{}).
		Select(`affiliates.id AS affiliate_id,
COALESCE(SUM(commissions.amount), 0) AS total_earnings,
COUNT(DISTINCT referrals.id) AS referral_count`).
		Joins("LEFT JOIN commissions ON commissions.affiliate_id = affiliates.id AND commissions.deleted_at IS NULL").
		Joins("LEFT JOIN referrals ON referrals.affiliate_id = affiliates.id AND referrals.status = ? AND referrals.deleted_at IS NULL",
			constants.ReferralStatusApproved).
		Where("affiliates.status = ?", constants.AffiliateStatusActive).
		Group("affiliates.id")

	switch strings.TrimSpace(metric) {
	case constants.LeaderboardMetricReferrals:
		query = query.Order("referral_count DESC, affiliates.id ASC")
	default:
		query = query.Order("total_earnings DESC, affiliates.id ASC")
	}

	var rows []LeaderboardAggregate
	if err := query.Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
