package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/reflink-next/internal/config"
	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db  *gorm.DB
	cfg *config.Config

	affiliateRepo  repository.AffiliateRepository
	linkRepo       repository.AffiliateLinkRepository
	visitRepo      repository.VisitRepository
	referralRepo   repository.ReferralRepository
	commissionRepo repository.CommissionRepository
	payoutRepo     repository.PayoutRepository
	settingRepo    repository.SettingRepository
	auditRepo      repository.AuditLogRepository
	adminRepo      repository.AdminRepository

	settingService     *SettingService
	auditService       *AuditService
	affiliateService   *AffiliateService
	visitService       *VisitService
	commissionService  *CommissionService
	attributionService *AttributionService
	leaderboardService *LeaderboardService
	reconcileService   *ReconcileService
	authService        *AuthService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Affiliate{},
		&models.AffiliateLink{},
		&models.Visit{},
		&models.Referral{},
		&models.Commission{},
		&models.PayoutRequest{},
		&models.AuditLogEntry{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := &config.Config{
		Affiliate: config.AffiliateConfig{
			AttributionWindowDays: 30,
			AttributionPolicy:     constants.AttributionPolicyLastTouch,
			DefaultCommissionRate: 10,
			ManualReview:          false,
			MinPayoutAmount:       50,
			LeaderboardMetric:     constants.LeaderboardMetricEarnings,
		},
	}
	cfg.JWT.SecretKey = "test-secret-key-0123456789abcdef"
	cfg.JWT.ExpireHours = 24

	env := &serviceTestEnv{
		db:             db,
		cfg:            cfg,
		affiliateRepo:  repository.NewAffiliateRepository(db),
		linkRepo:       repository.NewAffiliateLinkRepository(db),
		visitRepo:      repository.NewVisitRepository(db),
		referralRepo:   repository.NewReferralRepository(db),
		commissionRepo: repository.NewCommissionRepository(db),
		payoutRepo:     repository.NewPayoutRepository(db),
		settingRepo:    repository.NewSettingRepository(db),
		auditRepo:      repository.NewAuditLogRepository(db),
		adminRepo:      repository.NewAdminRepository(db),
	}
	env.settingService = NewSettingService(env.settingRepo)
	env.auditService = NewAuditService(env.auditRepo)
	env.affiliateService = NewAffiliateService(cfg, env.affiliateRepo, env.linkRepo, env.settingService, env.auditService)
	env.visitService = NewVisitService(env.visitRepo, env.affiliateService)
	env.commissionService = NewCommissionService(env.commissionRepo, env.affiliateService)
	env.attributionService = NewAttributionService(env.referralRepo, env.visitRepo, env.affiliateService, env.commissionService, env.auditService)
	env.leaderboardService = NewLeaderboardService(env.affiliateService, env.settingService, env.auditService)
	env.reconcileService = NewReconcileService(env.affiliateRepo, env.auditService)
	env.authService = NewAuthService(cfg, env.adminRepo)
	return env
}

func (env *serviceTestEnv) newPayoutService(t *testing.T, authorizer Authorizer) *PayoutService {
	t.Helper()
	return NewPayoutService(env.payoutRepo, env.commissionRepo, env.affiliateService, env.auditService, authorizer, nil)
}

func (env *serviceTestEnv) createAffiliate(t *testing.T, name, code, status string) *models.Affiliate {
	t.Helper()
	affiliate := &models.Affiliate{
		Name:          name,
		Email:         strings.ToLower(name) + "@example.com",
		AffiliateCode: code,
		Status:        status,
	}
	if err := env.affiliateRepo.Create(affiliate); err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	return affiliate
}

func (env *serviceTestEnv) createUnpaidCommission(t *testing.T, affiliateID uint, amount string) *models.Commission {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse amount failed: %v", err)
	}
	commission := &models.Commission{
		AffiliateID:    affiliateID,
		MemberRef:      "fixture",
		Amount:         models.NewMoneyFromDecimal(value),
		CommissionType: constants.CommissionTypeOneTime,
		Status:         constants.CommissionStatusUnpaid,
	}
	if err := env.commissionRepo.Create(commission); err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	if err := env.affiliateRepo.UpdateCachedTotals(affiliateID, map[string]interface{}{
		"total_earnings":    gorm.Expr("total_earnings + ?", value),
		"available_balance": gorm.Expr("available_balance + ?", value),
	}); err != nil {
		t.Fatalf("bump cached totals failed: %v", err)
	}
	return commission
}

func (env *serviceTestEnv) reloadAffiliate(t *testing.T, id uint) *models.Affiliate {
	t.Helper()
	affiliate, err := env.affiliateRepo.GetByID(id)
	if err != nil {
		t.Fatalf("reload affiliate failed: %v", err)
	}
	if affiliate == nil {
		t.Fatalf("affiliate %d not found", id)
	}
	return affiliate
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal failed: %v", err)
	}
	return parsed
}
