package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisitRepository 点击记录数据访问接口
type VisitRepository interface {
	WithTx(tx *gorm.DB) VisitRepository

	Create(visit *models.Visit) error
	GetByID(id uint) (*models.Visit, error)
	GetAttributableByAffiliate(affiliateID uint, since time.Time, policy string) (*models.Visit, error)
	GetAttributableForUpdate(affiliateID uint, since time.Time, policy string) (*models.Visit, error)
	MarkConverted(id uint) (bool, error)
	CountByAffiliate(affiliateID uint) (int64, error)
	List(filter VisitListFilter) ([]models.Visit, int64, error)
}

// GormVisitRepository GORM 点击记录仓储
type GormVisitRepository struct {
	db *gorm.DB
}

// NewVisitRepository 创建点击记录仓储
func NewVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVisitRepository) WithTx(tx *gorm.DB) VisitRepository {
	if tx == nil {
		return r
	}
	return &GormVisitRepository{db: tx}
}

// Create 创建点击记录
func (r *GormVisitRepository) Create(visit *models.Visit) error {
	return r.db.Create(visit).Error
}

// GetByID 按ID获取点击记录
func (r *GormVisitRepository) GetByID(id uint) (*models.Visit, error) {
	if id == 0 {
		return nil, nil
	}
	var visit models.Visit
	if err := r.db.First(&visit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

// GetAttributableByAffiliate 查询归因窗口内未转化的点击记录
// last_touch 取最近一条，first_touch 取最早一条。
func (r *GormVisitRepository) GetAttributableByAffiliate(affiliateID uint, since time.Time, policy string) (*models.Visit, error) {
	return r.getAttributable(r.db, affiliateID, since, policy)
}

// GetAttributableForUpdate 查询并锁定归因窗口内未转化的点击记录
func (r *GormVisitRepository) GetAttributableForUpdate(affiliateID uint, since time.Time, policy string) (*models.Visit, error) {
	return r.getAttributable(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), affiliateID, since, policy)
}

func (r *GormVisitRepository) getAttributable(db *gorm.DB, affiliateID uint, since time.Time, policy string) (*models.Visit, error) {
	if affiliateID == 0 {
		return nil, nil
	}
	order := "created_at DESC, id DESC"
	if strings.TrimSpace(policy) == constants.AttributionPolicyFirstTouch {
		order = "created_at ASC, id ASC"
	}

	var visit models.Visit
	err := db.Where("affiliate_id = ? AND converted = ? AND created_at >= ?", affiliateID, false, since).
		Order(order).
		Limit(1).
		First(&visit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

// MarkConverted 单向置转化标记，已转化时返回 false
func (r *GormVisitRepository) MarkConverted(id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	result := r.db.Model(&models.Visit{}).
		Where("id = ? AND converted = ?", id, false).
		Update("converted", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountByAffiliate 统计合作伙伴点击数
func (r *GormVisitRepository) CountByAffiliate(affiliateID uint) (int64, error) {
	if affiliateID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Visit{}).Where("affiliate_id = ?", affiliateID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// List 查询点击记录列表
func (r *GormVisitRepository) List(filter VisitListFilter) ([]models.Visit, int64, error) {
	query := r.db.Model(&models.Visit{})
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if filter.LinkID != 0 {
		query = query.Where("link_id = ?", filter.LinkID)
	}
	if filter.Converted != nil {
		query = query.Where("converted = ?", *filter.Converted)
	}
	if country := strings.TrimSpace(filter.Country); country != "" {
		query = query.Where("country = ?", strings.ToUpper(country))
	}
	if device := strings.TrimSpace(filter.DeviceType); device != "" {
		query = query.Where("device_type = ?", device)
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

	var rows []models.Visit
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
