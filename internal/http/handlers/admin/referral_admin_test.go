package admin

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/models"

	"gorm.io/gorm"
)

func seedPendingReferral(t *testing.T, db *gorm.DB) *models.Referral {
	t.Helper()
	affiliate := &models.Affiliate{
		Name:          "reviewee",
		Email:         "reviewee@example.com",
		AffiliateCode: "AF-RVW0001",
		Status:        constants.AffiliateStatusActive,
		TotalReferrals: 1,
	}
	if err := db.Create(affiliate).Error; err != nil {
		t.Fatalf("seed affiliate failed: %v", err)
	}
	referral := &models.Referral{
		AffiliateID:      affiliate.ID,
		OrderID:          "order-review-1",
		OrderAmount:      models.NewMoneyFromDecimal(mustAmount(t, "200.00")),
		RatePercent:      models.NewMoneyFromDecimal(mustAmount(t, "10")),
		CommissionAmount: models.NewMoneyFromDecimal(mustAmount(t, "20.00")),
		Status:           constants.ReferralStatusPending,
		ConversionType:   constants.ConversionTypeOneTime,
	}
	if err := db.Create(referral).Error; err != nil {
		t.Fatalf("seed referral failed: %v", err)
	}
	return referral
}

func TestReviewReferralApproveViaHandler(t *testing.T) {
	h, db := newTestHandler(t)
	referral := seedPendingReferral(t, db)

	code, data := decodeEnvelope(t, performAsAdmin(t, h.ReviewReferral, http.MethodPost,
		"/api/v1/admin/referrals/1/review", `{"approve":true}`,
		map[string]string{"id": fmt.Sprint(referral.ID)}))
	if code != response.CodeOK {
		t.Fatalf("approve want success got code %d", code)
	}
	if got, _ := data["status"].(string); got != constants.ReferralStatusApproved {
		t.Fatalf("status want approved got %v", data["status"])
	}

	var commission models.Commission
	if err := db.Where("referral_id = ?", referral.ID).First(&commission).Error; err != nil {
		t.Fatalf("approved referral should materialize commission: %v", err)
	}

	// 二次复核应报冲突。
	code, _ = decodeEnvelope(t, performAsAdmin(t, h.ReviewReferral, http.MethodPost,
		"/api/v1/admin/referrals/1/review", `{"approve":false}`,
		map[string]string{"id": fmt.Sprint(referral.ID)}))
	if code != response.CodeConflict {
		t.Fatalf("re-review want %d got %d", response.CodeConflict, code)
	}
}

func TestReviewReferralValidation(t *testing.T) {
	h, db := newTestHandler(t)
	referral := seedPendingReferral(t, db)

	code, _ := decodeEnvelope(t, performAsAdmin(t, h.ReviewReferral, http.MethodPost,
		"/api/v1/admin/referrals/x/review", `{"approve":true}`,
		map[string]string{"id": "not-a-number"}))
	if code != response.CodeBadRequest {
		t.Fatalf("bad id want %d got %d", response.CodeBadRequest, code)
	}

	code, _ = decodeEnvelope(t, performAsAdmin(t, h.ReviewReferral, http.MethodPost,
		"/api/v1/admin/referrals/1/review", `{}`,
		map[string]string{"id": fmt.Sprint(referral.ID)}))
	if code != response.CodeBadRequest {
		t.Fatalf("missing approve want %d got %d", response.CodeBadRequest, code)
	}

	code, _ = decodeEnvelope(t, performAsAdmin(t, h.ReviewReferral, http.MethodPost,
		"/api/v1/admin/referrals/404/review", `{"approve":true}`,
		map[string]string{"id": "404"}))
	if code != response.CodeNotFound {
		t.Fatalf("unknown referral want %d got %d", response.CodeNotFound, code)
	}
}
