package service

import (
	"errors"
	"testing"
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"github.com/shopspring/decimal"
)

func (env *serviceTestEnv) createVisitAt(t *testing.T, affiliateID uint, createdAt time.Time) *models.Visit {
	t.Helper()
	visit := &models.Visit{
		AffiliateID: affiliateID,
		Referrer:    "https://blog.example.com",
		UserAgent:   "test-agent",
	}
	if err := env.visitRepo.Create(visit); err != nil {
		t.Fatalf("create visit failed: %v", err)
	}
	if err := env.db.Model(&models.Visit{}).Where("id = ?", visit.ID).
		Update("created_at", createdAt).Error; err != nil {
		t.Fatalf("backdate visit failed: %v", err)
	}
	visit.CreatedAt = createdAt
	return visit
}

func TestAttributeComputesCommissionAndMarksVisit(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "earner", "AF-EAR0001", constants.AffiliateStatusActive)
	rate := decimal.NewFromInt(15)
	if err := env.db.Model(&models.Affiliate{}).Where("id = ?", affiliate.ID).
		Update("commission_rate", models.NewMoneyFromDecimal(rate)).Error; err != nil {
		t.Fatalf("set override rate failed: %v", err)
	}
	visit := env.createVisitAt(t, affiliate.ID, time.Now().Add(-time.Hour))

	result, err := env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-1001",
		OrderAmount:  mustDecimal(t, "1500.00"),
	})
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if !result.Attributed {
		t.Fatalf("expected attributed=true")
	}
	if got := result.Referral.CommissionAmount.Decimal; !got.Equal(mustDecimal(t, "225.00")) {
		t.Fatalf("commission want 225.00 got %s", got)
	}
	if result.Referral.VisitID == nil || *result.Referral.VisitID != visit.ID {
		t.Fatalf("referral should bind the in-window visit")
	}
	if result.Commission == nil || !result.Commission.Amount.Decimal.Equal(mustDecimal(t, "225.00")) {
		t.Fatalf("commission entry should be materialized at 225.00")
	}

	reloaded, err := env.visitRepo.GetByID(visit.ID)
	if err != nil {
		t.Fatalf("reload visit failed: %v", err)
	}
	if !reloaded.Converted {
		t.Fatalf("visit should be marked converted")
	}

	stats := env.reloadAffiliate(t, affiliate.ID)
	if stats.TotalReferrals != 1 {
		t.Fatalf("total_referrals want 1 got %d", stats.TotalReferrals)
	}
	if !stats.AvailableBalance.Decimal.Equal(mustDecimal(t, "225.00")) {
		t.Fatalf("available_balance want 225.00 got %s", stats.AvailableBalance.Decimal)
	}
}

func TestAttributeIsIdempotentPerOrder(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "idem", "AF-IDE0001", constants.AffiliateStatusActive)

	first, err := env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-2001",
		OrderAmount:  mustDecimal(t, "100.00"),
	})
	if err != nil {
		t.Fatalf("first attribute failed: %v", err)
	}

	second, err := env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-2001",
		OrderAmount:  mustDecimal(t, "999.00"),
	})
	if err != nil {
		t.Fatalf("repeat attribute failed: %v", err)
	}
	if second.Referral.ID != first.Referral.ID {
		t.Fatalf("repeat order should return existing referral")
	}
	if !second.Referral.OrderAmount.Decimal.Equal(mustDecimal(t, "100.00")) {
		t.Fatalf("frozen order amount want 100.00 got %s", second.Referral.OrderAmount.Decimal)
	}

	stats := env.reloadAffiliate(t, affiliate.ID)
	if stats.TotalReferrals != 1 {
		t.Fatalf("repeat order must not double count, got %d", stats.TotalReferrals)
	}
}

func TestAttributeOrganicAndInactivePaths(t *testing.T) {
	env := setupServiceTest(t)

	result, err := env.attributionService.Attribute(ConversionInput{
		OrderID:     "order-3001",
		OrderAmount: mustDecimal(t, "50.00"),
	})
	if err != nil {
		t.Fatalf("organic attribute failed: %v", err)
	}
	if result.Attributed {
		t.Fatalf("missing code should be unattributed")
	}

	result, err = env.attributionService.Attribute(ConversionInput{
		ReferralCode: "AF-GHOST123",
		OrderID:      "order-3002",
		OrderAmount:  mustDecimal(t, "50.00"),
	})
	if err != nil {
		t.Fatalf("unknown code attribute failed: %v", err)
	}
	if result.Attributed {
		t.Fatalf("unknown code should fall back to organic")
	}

	suspended := env.createAffiliate(t, "frozen", "AF-FRZ0001", constants.AffiliateStatusSuspended)
	result, err = env.attributionService.Attribute(ConversionInput{
		ReferralCode: suspended.AffiliateCode,
		OrderID:      "order-3003",
		OrderAmount:  mustDecimal(t, "50.00"),
	})
	if err != nil {
		t.Fatalf("suspended attribute failed: %v", err)
	}
	if result.Attributed {
		t.Fatalf("suspended affiliate must not earn attribution")
	}

	if _, err := env.attributionService.Attribute(ConversionInput{
		OrderID:     "order-3004",
		OrderAmount: mustDecimal(t, "0"),
	}); !errors.Is(err, ErrConversionInvalid) {
		t.Fatalf("non-positive amount want ErrConversionInvalid got %v", err)
	}
}

func TestAttributeIgnoresVisitOutsideWindow(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "ex", "AF-EXP0001", constants.AffiliateStatusActive)
	stale := env.createVisitAt(t, affiliate.ID, time.Now().Add(-31*24*time.Hour))

	result, err := env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-4001",
		OrderAmount:  mustDecimal(t, "80.00"),
	})
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if !result.Attributed {
		t.Fatalf("valid code should still attribute without a matching visit")
	}
	if result.Referral.VisitID != nil {
		t.Fatalf("expired visit must not be bound")
	}

	reloaded, err := env.visitRepo.GetByID(stale.ID)
	if err != nil {
		t.Fatalf("reload visit failed: %v", err)
	}
	if reloaded.Converted {
		t.Fatalf("expired visit must stay unconverted")
	}
}

func TestAttributePolicyPicksTouch(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "touch", "AF-TCH0001", constants.AffiliateStatusActive)
	oldest := env.createVisitAt(t, affiliate.ID, time.Now().Add(-48*time.Hour))
	newest := env.createVisitAt(t, affiliate.ID, time.Now().Add(-time.Hour))

	result, err := env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-5001",
		OrderAmount:  mustDecimal(t, "10.00"),
	})
	if err != nil {
		t.Fatalf("last-touch attribute failed: %v", err)
	}
	if result.Referral.VisitID == nil || *result.Referral.VisitID != newest.ID {
		t.Fatalf("last_touch should bind the newest visit")
	}

	if _, err := env.settingService.UpdateAffiliateSetting(AffiliateSetting{
		AttributionWindowDays: 30,
		AttributionPolicy:     constants.AttributionPolicyFirstTouch,
		DefaultCommissionRate: 10,
		MinPayoutAmount:       50,
		LeaderboardMetric:     constants.LeaderboardMetricEarnings,
	}); err != nil {
		t.Fatalf("switch policy failed: %v", err)
	}

	result, err = env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-5002",
		OrderAmount:  mustDecimal(t, "10.00"),
	})
	if err != nil {
		t.Fatalf("first-touch attribute failed: %v", err)
	}
	if result.Referral.VisitID == nil || *result.Referral.VisitID != oldest.ID {
		t.Fatalf("first_touch should bind the oldest remaining visit")
	}
}

func TestReviewReferralApproveMaterializesCommission(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.settingService.UpdateAffiliateSetting(AffiliateSetting{
		AttributionWindowDays: 30,
		AttributionPolicy:     constants.AttributionPolicyLastTouch,
		DefaultCommissionRate: 10,
		ManualReview:          true,
		MinPayoutAmount:       50,
		LeaderboardMetric:     constants.LeaderboardMetricEarnings,
	}); err != nil {
		t.Fatalf("enable manual review failed: %v", err)
	}
	affiliate := env.createAffiliate(t, "review", "AF-REV0001", constants.AffiliateStatusActive)

	result, err := env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-6001",
		OrderAmount:  mustDecimal(t, "200.00"),
	})
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if result.Referral.Status != constants.ReferralStatusPending {
		t.Fatalf("manual review should create pending referral, got %s", result.Referral.Status)
	}
	if result.Commission != nil {
		t.Fatalf("pending referral must not materialize commission")
	}

	approved, err := env.attributionService.ReviewReferral(SystemActor(), result.Referral.ID, true, "")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.ReferralStatusApproved {
		t.Fatalf("status want approved got %s", approved.Status)
	}
	commission, err := env.commissionService.GetByReferralID(approved.ID)
	if err != nil {
		t.Fatalf("load commission failed: %v", err)
	}
	if commission == nil || !commission.Amount.Decimal.Equal(mustDecimal(t, "20.00")) {
		t.Fatalf("approved referral should create 20.00 commission")
	}

	if _, err := env.attributionService.ReviewReferral(SystemActor(), approved.ID, false, ""); !errors.Is(err, ErrReferralStatusInvalid) {
		t.Fatalf("re-review want ErrReferralStatusInvalid got %v", err)
	}
}

func TestReviewReferralRejectRollsBackCounter(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.settingService.UpdateAffiliateSetting(AffiliateSetting{
		AttributionWindowDays: 30,
		AttributionPolicy:     constants.AttributionPolicyLastTouch,
		DefaultCommissionRate: 10,
		ManualReview:          true,
		MinPayoutAmount:       50,
		LeaderboardMetric:     constants.LeaderboardMetricEarnings,
	}); err != nil {
		t.Fatalf("enable manual review failed: %v", err)
	}
	affiliate := env.createAffiliate(t, "reject", "AF-REJ0001", constants.AffiliateStatusActive)

	result, err := env.attributionService.Attribute(ConversionInput{
		ReferralCode: affiliate.AffiliateCode,
		OrderID:      "order-7001",
		OrderAmount:  mustDecimal(t, "100.00"),
	})
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if got := env.reloadAffiliate(t, affiliate.ID).TotalReferrals; got != 1 {
		t.Fatalf("pending referral should bump counter, got %d", got)
	}

	rejected, err := env.attributionService.ReviewReferral(SystemActor(), result.Referral.ID, false, "")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.ReferralStatusRejected {
		t.Fatalf("status want rejected got %s", rejected.Status)
	}
	if got := env.reloadAffiliate(t, affiliate.ID).TotalReferrals; got != 0 {
		t.Fatalf("rejected referral should roll back counter, got %d", got)
	}
	commission, err := env.commissionService.GetByReferralID(rejected.ID)
	if err != nil {
		t.Fatalf("load commission failed: %v", err)
	}
	if commission != nil {
		t.Fatalf("rejected referral must not carry commission")
	}
}
