package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/reflink-next/internal/models"

	"gorm.io/gorm"
)

// AffiliateLinkRepository 推广链接变体数据访问接口
type AffiliateLinkRepository interface {
	WithTx(tx *gorm.DB) AffiliateLinkRepository

	Create(link *models.AffiliateLink) error
	GetByID(id uint) (*models.AffiliateLink, error)
	GetByCode(code string) (*models.AffiliateLink, error)
	Rename(id uint, name string, updatedAt time.Time) error
	ListByAffiliate(affiliateID uint) ([]models.AffiliateLink, error)
}

// GormAffiliateLinkRepository GORM 实现
type GormAffiliateLinkRepository struct {
	db *gorm.DB
}

// NewAffiliateLinkRepository 创建推广链接仓储
func NewAffiliateLinkRepository(db *gorm.DB) *GormAffiliateLinkRepository {
	return &GormAffiliateLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateLinkRepository) WithTx(tx *gorm.DB) AffiliateLinkRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateLinkRepository{db: tx}
}

// Create 创建推广链接，变体码唯一冲突原样返回由上层重试
func (r *GormAffiliateLinkRepository) Create(link *models.AffiliateLink) error {
	return r.db.Create(link).Error
}

// GetByID 按ID获取推广链接
func (r *GormAffiliateLinkRepository) GetByID(id uint) (*models.AffiliateLink, error) {
	if id == 0 {
		return nil, nil
	}
	var link models.AffiliateLink
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetByCode 按变体码获取推广链接
func (r *GormAffiliateLinkRepository) GetByCode(code string) (*models.AffiliateLink, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var link models.AffiliateLink
	if err := r.db.Where("link_code = ?", normalized).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Rename 重命名推广链接，变体码创建后不可变
func (r *GormAffiliateLinkRepository) Rename(id uint, name string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       strings.TrimSpace(name),
			"updated_at": updatedAt,
		}).Error
}

// ListByAffiliate 查询合作伙伴名下全部推广链接
func (r *GormAffiliateLinkRepository) ListByAffiliate(affiliateID uint) ([]models.AffiliateLink, error) {
	if affiliateID == 0 {
		return []models.AffiliateLink{}, nil
	}
	var rows []models.AffiliateLink
	if err := r.db.Where("affiliate_id = ?", affiliateID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
