package repository

import (
	"errors"
	"strings"

	"github.com/reflink-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutRepository 提现申请数据访问接口
type PayoutRepository interface {
	WithTx(tx *gorm.DB) PayoutRepository

	Create(req *models.PayoutRequest) error
	Update(req *models.PayoutRequest) error
	GetByID(id uint) (*models.PayoutRequest, error)
	GetByIDForUpdate(id uint) (*models.PayoutRequest, error)
	List(filter PayoutListFilter) ([]models.PayoutRequest, int64, error)
}

// GormPayoutRepository GORM 提现申请仓储
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建提现申请仓储
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Create 创建提现申请
func (r *GormPayoutRepository) Create(req *models.PayoutRequest) error {
	return r.db.Create(req).Error
}

// Update 更新提现申请
func (r *GormPayoutRepository) Update(req *models.PayoutRequest) error {
	return r.db.Save(req).Error
}

// GetByID 按ID获取提现申请
func (r *GormPayoutRepository) GetByID(id uint) (*models.PayoutRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.PayoutRequest
	if err := r.db.Preload("Affiliate").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByIDForUpdate 按ID锁定获取提现申请
func (r *GormPayoutRepository) GetByIDForUpdate(id uint) (*models.PayoutRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.PayoutRequest
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询提现申请列表
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	query := r.db.Model(&models.PayoutRequest{}).Preload("Affiliate")
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
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

	var rows []models.PayoutRequest
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
