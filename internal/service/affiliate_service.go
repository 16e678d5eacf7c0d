package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/reflink-next/internal/config"
	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	affiliateCodePrefix       = "AF-"
	affiliateCodeSlugMaxLen   = 8
	affiliateCodeSuffixDigits = 4
	affiliateCodeMaxRetry     = 5
	affiliateLinkCodeMaxRetry = 5
)

// AffiliateService 合作伙伴注册与档案服务
type AffiliateService struct {
	cfg            *config.Config
	repo           repository.AffiliateRepository
	linkRepo       repository.AffiliateLinkRepository
	settingService *SettingService
	auditService   *AuditService
}

// NewAffiliateService 创建合作伙伴服务
func NewAffiliateService(
	cfg *config.Config,
	repo repository.AffiliateRepository,
	linkRepo repository.AffiliateLinkRepository,
	settingService *SettingService,
	auditService *AuditService,
) *AffiliateService {
	return &AffiliateService{
		cfg:            cfg,
		repo:           repo,
		linkRepo:       linkRepo,
		settingService: settingService,
		auditService:   auditService,
	}
}

// AffiliateRegisterInput 注册输入
type AffiliateRegisterInput struct {
	Name              string
	Email             string
	CommissionRate    *decimal.Decimal
	PayoutMethod      string
	PayoutDestination string
	ClientIP          string
}

// AffiliateItem 列表项（档案 + 账本聚合）
type AffiliateItem struct {
	Affiliate models.Affiliate `json:"affiliate"`
	Stats     AffiliateStats   `json:"stats"`
}

// AffiliateStats 合作伙伴账本聚合
type AffiliateStats struct {
	VisitCount       int64        `json:"visit_count"`
	ReferralCount    int64        `json:"referral_count"`
	TotalCommission  models.Money `json:"total_commission"`
	UnpaidCommission models.Money `json:"unpaid_commission"`
	PaidCommission   models.Money `json:"paid_commission"`
}

// Setting 获取当前生效的推广配置
func (s *AffiliateService) Setting() (AffiliateSetting, error) {
	var defaults config.AffiliateConfig
	if s.cfg != nil {
		defaults = s.cfg.Affiliate
	}
	return s.settingService.GetAffiliateSetting(defaults)
}

// Register 注册合作伙伴：从姓名派生推广码并追加随机数字后缀，
// 唯一冲突时有限次重试。
func (s *AffiliateService) Register(input AffiliateRegisterInput) (*models.Affiliate, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" {
		return nil, ErrInvalidInput
	}

	setting, err := s.Setting()
	if err != nil {
		return nil, err
	}
	status := constants.AffiliateStatusActive
	if setting.ManualReview {
		status = constants.AffiliateStatusPending
	}

	var rate *models.Money
	if input.CommissionRate != nil {
		value := input.CommissionRate.Round(2)
		if value.LessThan(decimal.Zero) || value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, ErrAffiliateConfigInvalid
		}
		m := models.NewMoneyFromDecimal(value)
		rate = &m
	}

	for i := 0; i < affiliateCodeMaxRetry; i++ {
		code, genErr := generateAffiliateCode(name)
		if genErr != nil {
			return nil, genErr
		}
		affiliate := &models.Affiliate{
			Name:              name,
			Email:             email,
			AffiliateCode:     code,
			Status:            status,
			CommissionRate:    rate,
			PayoutMethod:      strings.TrimSpace(input.PayoutMethod),
			PayoutDestination: strings.TrimSpace(input.PayoutDestination),
			TotalEarnings:     models.NewMoneyFromDecimal(decimal.Zero),
			AvailableBalance:  models.NewMoneyFromDecimal(decimal.Zero),
		}
		if err := s.repo.Create(affiliate); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}

		actorID := affiliate.ID
		s.auditService.Record(AuditActor{ID: &actorID, Email: email, Role: "affiliate"},
			constants.AuditActionAffiliateRegistered,
			map[string]interface{}{
				"affiliate_id":   affiliate.ID,
				"affiliate_code": affiliate.AffiliateCode,
				"status":         affiliate.Status,
			},
			input.ClientIP,
		)
		return affiliate, nil
	}
	return nil, ErrCodeGenerationExhausted
}

// GetByID 按ID获取合作伙伴
func (s *AffiliateService) GetByID(id uint) (*models.Affiliate, error) {
	affiliate, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}
	return affiliate, nil
}

// GetByCode 按推广码获取合作伙伴
func (s *AffiliateService) GetByCode(code string) (*models.Affiliate, error) {
	affiliate, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrUnknownReferralCode
	}
	return affiliate, nil
}

// ResolveCode 将入站推广码解析为合作伙伴（直接码或链接变体码）
// 返回匹配到的链接变体（可能为空）。
func (s *AffiliateService) ResolveCode(code string) (*models.Affiliate, *models.AffiliateLink, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return nil, nil, ErrUnknownReferralCode
	}
	affiliate, err := s.repo.GetByCode(normalized)
	if err != nil {
		return nil, nil, err
	}
	if affiliate != nil {
		return affiliate, nil, nil
	}

	if s.linkRepo == nil {
		return nil, nil, ErrUnknownReferralCode
	}
	link, err := s.linkRepo.GetByCode(normalized)
	if err != nil {
		return nil, nil, err
	}
	if link == nil {
		return nil, nil, ErrUnknownReferralCode
	}
	affiliate, err = s.repo.GetByID(link.AffiliateID)
	if err != nil {
		return nil, nil, err
	}
	if affiliate == nil {
		return nil, nil, ErrUnknownReferralCode
	}
	return affiliate, link, nil
}

// UpdateStatus 管理端更新合作伙伴状态（软状态流转，永不硬删除）
func (s *AffiliateService) UpdateStatus(actor AuditActor, id uint, rawStatus, clientIP string) (*models.Affiliate, error) {
	nextStatus := strings.TrimSpace(rawStatus)
	switch nextStatus {
	case constants.AffiliateStatusPending,
		constants.AffiliateStatusActive,
		constants.AffiliateStatusSuspended,
		constants.AffiliateStatusRejected:
	default:
		return nil, ErrAffiliateStatusInvalid
	}

	affiliate, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(affiliate.Status) == nextStatus {
		return affiliate, nil
	}
	if err := s.repo.UpdateStatus(id, nextStatus, time.Now()); err != nil {
		return nil, err
	}

	s.auditService.Record(actor, constants.AuditActionAffiliateStatus,
		map[string]interface{}{
			"affiliate_id": id,
			"from":         affiliate.Status,
			"to":           nextStatus,
		},
		clientIP,
	)
	return s.repo.GetByID(id)
}

// List 后台查询合作伙伴列表（含账本聚合）
func (s *AffiliateService) List(filter repository.AffiliateListFilter) ([]AffiliateItem, int64, error) {
	rows, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		if row.ID == 0 {
			continue
		}
		ids = append(ids, row.ID)
	}
	statsMap, err := s.repo.GetStatsBatch(ids)
	if err != nil {
		return nil, 0, err
	}
	result := make([]AffiliateItem, 0, len(rows))
	for _, row := range rows {
		agg := statsMap[row.ID]
		result = append(result, AffiliateItem{
			Affiliate: row,
			Stats: AffiliateStats{
				VisitCount:       agg.VisitCount,
				ReferralCount:    agg.ReferralCount,
				TotalCommission:  models.NewMoneyFromDecimal(agg.TotalCommission.Round(2)),
				UnpaidCommission: models.NewMoneyFromDecimal(agg.UnpaidCommission.Round(2)),
				PaidCommission:   models.NewMoneyFromDecimal(agg.PaidCommission.Round(2)),
			},
		})
	}
	return result, total, nil
}

// Stats 查询单个合作伙伴的账本聚合
func (s *AffiliateService) Stats(id uint) (AffiliateStats, error) {
	stats := AffiliateStats{
		TotalCommission:  models.NewMoneyFromDecimal(decimal.Zero),
		UnpaidCommission: models.NewMoneyFromDecimal(decimal.Zero),
		PaidCommission:   models.NewMoneyFromDecimal(decimal.Zero),
	}
	if id == 0 {
		return stats, ErrNotFound
	}
	statsMap, err := s.repo.GetStatsBatch([]uint{id})
	if err != nil {
		return stats, err
	}
	agg := statsMap[id]
	stats.VisitCount = agg.VisitCount
	stats.ReferralCount = agg.ReferralCount
	stats.TotalCommission = models.NewMoneyFromDecimal(agg.TotalCommission.Round(2))
	stats.UnpaidCommission = models.NewMoneyFromDecimal(agg.UnpaidCommission.Round(2))
	stats.PaidCommission = models.NewMoneyFromDecimal(agg.PaidCommission.Round(2))
	return stats, nil
}

// ApplyCommissionTx 在事务内累加合作伙伴的佣金缓存聚合
// 与 Commission 写入同一事务，保证缓存与账本一致推进。
func (s *AffiliateService) ApplyCommissionTx(tx *gorm.DB, affiliateID uint, amount decimal.Decimal) error {
	if affiliateID == 0 {
		return ErrNotFound
	}
	value := amount.Round(2)
	if value.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	return s.repo.WithTx(tx).UpdateCachedTotals(affiliateID, map[string]interface{}{
		"total_earnings":    gorm.Expr("total_earnings + ?", value),
		"available_balance": gorm.Expr("available_balance + ?", value),
		"updated_at":        time.Now(),
	})
}

// ApplyReferralTx 在事务内累加合作伙伴成交缓存计数
func (s *AffiliateService) ApplyReferralTx(tx *gorm.DB, affiliateID uint) error {
	if affiliateID == 0 {
		return ErrNotFound
	}
	return s.repo.WithTx(tx).UpdateCachedTotals(affiliateID, map[string]interface{}{
		"total_referrals": gorm.Expr("total_referrals + 1"),
		"updated_at":      time.Now(),
	})
}

// ApplyVisit 累加合作伙伴点击缓存计数
func (s *AffiliateService) ApplyVisit(tx *gorm.DB, affiliateID uint) error {
	if affiliateID == 0 {
		return ErrNotFound
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	return repo.UpdateCachedTotals(affiliateID, map[string]interface{}{
		"total_visits": gorm.Expr("total_visits + 1"),
		"updated_at":   time.Now(),
	})
}

// CreateLink 为合作伙伴创建具名推广链接变体
func (s *AffiliateService) CreateLink(affiliateID uint, name string) (*models.AffiliateLink, error) {
	if s.linkRepo == nil {
		return nil, ErrNotFound
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	affiliate, err := s.repo.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}

	for i := 0; i < affiliateLinkCodeMaxRetry; i++ {
		suffix, genErr := randomDigits(affiliateCodeSuffixDigits)
		if genErr != nil {
			return nil, genErr
		}
		link := &models.AffiliateLink{
			AffiliateID: affiliate.ID,
			Name:        trimmed,
			LinkCode:    affiliate.AffiliateCode + "-" + suffix,
		}
		if err := s.linkRepo.Create(link); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return link, nil
	}
	return nil, ErrCodeGenerationExhausted
}

// RenameLink 重命名推广链接（变体码不可变）
func (s *AffiliateService) RenameLink(affiliateID, linkID uint, name string) (*models.AffiliateLink, error) {
	if s.linkRepo == nil {
		return nil, ErrNotFound
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	link, err := s.linkRepo.GetByID(linkID)
	if err != nil {
		return nil, err
	}
	if link == nil || (affiliateID != 0 && link.AffiliateID != affiliateID) {
		return nil, ErrNotFound
	}
	if err := s.linkRepo.Rename(link.ID, trimmed, time.Now()); err != nil {
		return nil, err
	}
	return s.linkRepo.GetByID(link.ID)
}

// ListLinks 查询合作伙伴推广链接
func (s *AffiliateService) ListLinks(affiliateID uint) ([]models.AffiliateLink, error) {
	if s.linkRepo == nil {
		return []models.AffiliateLink{}, nil
	}
	return s.linkRepo.ListByAffiliate(affiliateID)
}

// CommissionRateFor 取合作伙伴生效佣金比例（档案覆盖优先于全局默认）
func (s *AffiliateService) CommissionRateFor(affiliate *models.Affiliate, setting AffiliateSetting) decimal.Decimal {
	if affiliate != nil && affiliate.CommissionRate != nil {
		return affiliate.CommissionRate.Decimal.Round(2)
	}
	return decimal.NewFromFloat(setting.DefaultCommissionRate).Round(2)
}

// generateAffiliateCode 由姓名派生推广码：AF-<姓名缩写><4位随机数字>
func generateAffiliateCode(name string) (string, error) {
	slug := slugifyAffiliateName(name)
	if slug == "" {
		slug = "PARTNER"
	}
	suffix, err := randomDigits(affiliateCodeSuffixDigits)
	if err != nil {
		return "", err
	}
	return affiliateCodePrefix + slug + suffix, nil
}

func slugifyAffiliateName(name string) string {
	var builder strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			if builder.Len() >= affiliateCodeSlugMaxLen {
				break
			}
		}
	}
	return builder.String()
}

func randomDigits(length int) (string, error) {
	var builder strings.Builder
	builder.Grow(length)
	max := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return builder.String(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
