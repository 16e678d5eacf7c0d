package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reflink-next/internal/config"
	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/provider"
	"github.com/reflink-next/internal/repository"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
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
			MinPayoutAmount:       50,
			LeaderboardMetric:     constants.LeaderboardMetricEarnings,
		},
	}

	affiliateRepo := repository.NewAffiliateRepository(db)
	linkRepo := repository.NewAffiliateLinkRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	settingService := service.NewSettingService(settingRepo)
	auditService := service.NewAuditService(auditRepo)
	affiliateService := service.NewAffiliateService(cfg, affiliateRepo, linkRepo, settingService, auditService)
	visitService := service.NewVisitService(visitRepo, affiliateService)
	commissionService := service.NewCommissionService(commissionRepo, affiliateService)
	attributionService := service.NewAttributionService(referralRepo, visitRepo, affiliateService, commissionService, auditService)
	payoutService := service.NewPayoutService(payoutRepo, commissionRepo, affiliateService, auditService, nil, nil)
	leaderboardService := service.NewLeaderboardService(affiliateService, settingService, auditService)

	container := &provider.Container{
		Config:             cfg,
		AffiliateRepo:      affiliateRepo,
		SettingService:     settingService,
		AuditService:       auditService,
		AffiliateService:   affiliateService,
		VisitService:       visitService,
		CommissionService:  commissionService,
		AttributionService: attributionService,
		PayoutService:      payoutService,
		LeaderboardService: leaderboardService,
	}
	return New(container), db
}

func performJSON(t *testing.T, handle gin.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handle(c)
	return w
}

func seedActiveAffiliate(t *testing.T, db *gorm.DB, code string) *models.Affiliate {
	t.Helper()
	affiliate := &models.Affiliate{
		Name:          "fixture",
		Email:         "fixture@example.com",
		AffiliateCode: code,
		Status:        constants.AffiliateStatusActive,
	}
	if err := db.Create(affiliate).Error; err != nil {
		t.Fatalf("seed affiliate failed: %v", err)
	}
	return affiliate
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("envelope responses always use HTTP 200, got %d", w.Code)
	}
	var body struct {
		StatusCode int                    `json:"status_code"`
		Msg        string                 `json:"msg"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope failed: %v", err)
	}
	return body.StatusCode, body.Data
}
