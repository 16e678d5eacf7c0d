package service

import (
	"strings"

	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/repository"

	"gorm.io/gorm"
)

// VisitService 点击追踪服务
type VisitService struct {
	repo             repository.VisitRepository
	affiliateService *AffiliateService
}

// NewVisitService 创建点击追踪服务
func NewVisitService(repo repository.VisitRepository, affiliateService *AffiliateService) *VisitService {
	return &VisitService{
		repo:             repo,
		affiliateService: affiliateService,
	}
}

// VisitRecordInput 点击记录输入
type VisitRecordInput struct {
	ReferralCode string
	Referrer     string
	UserAgent    string
	Country      string
	DeviceType   string
	ClientIP     string
}

// RecordVisit 记录入站点击：推广码解析失败时不落任何数据。
// 非激活合作伙伴的点击仍会记录，保持历史连续性；佣金路径另行拦截。
func (s *VisitService) RecordVisit(input VisitRecordInput) (*models.Visit, error) {
	if s.repo == nil || s.affiliateService == nil {
		return nil, ErrNotFound
	}
	affiliate, link, err := s.affiliateService.ResolveCode(input.ReferralCode)
	if err != nil {
		return nil, err
	}

	visit := &models.Visit{
		AffiliateID: affiliate.ID,
		Referrer:    strings.TrimSpace(input.Referrer),
		UserAgent:   strings.TrimSpace(input.UserAgent),
		Country:     strings.ToUpper(strings.TrimSpace(input.Country)),
		DeviceType:  strings.TrimSpace(input.DeviceType),
		ClientIP:    strings.TrimSpace(input.ClientIP),
		Converted:   false,
	}
	if link != nil {
		linkID := link.ID
		visit.LinkID = &linkID
	}

	err = s.affiliateService.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(visit); err != nil {
			return err
		}
		return s.affiliateService.ApplyVisit(tx, affiliate.ID)
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// MarkConverted 单向置位转化标记，重复调用为幂等 no-op
func (s *VisitService) MarkConverted(visitID uint) error {
	if s.repo == nil {
		return nil
	}
	_, err := s.repo.MarkConverted(visitID)
	return err
}

// GetByID 按ID获取点击记录
func (s *VisitService) GetByID(id uint) (*models.Visit, error) {
	visit, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if visit == nil {
		return nil, ErrNotFound
	}
	return visit, nil
}

// List 查询点击记录
func (s *VisitService) List(filter repository.VisitListFilter) ([]models.Visit, int64, error) {
	if s.repo == nil {
		return []models.Visit{}, 0, nil
	}
	return s.repo.List(filter)
}
