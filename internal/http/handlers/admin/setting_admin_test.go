package admin

import (
	"net/http"
	"testing"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/http/response"
)

func TestAffiliateSettingsRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	code, data := decodeEnvelope(t, performAsAdmin(t, h.GetAffiliateSettings, http.MethodGet,
		"/api/v1/admin/settings/affiliate", "", nil))
	if code != response.CodeOK {
		t.Fatalf("get settings want success got code %d", code)
	}
	if got, _ := data["attribution_window_days"].(float64); got != 30 {
		t.Fatalf("config default window want 30 got %v", data["attribution_window_days"])
	}

	code, data = decodeEnvelope(t, performAsAdmin(t, h.UpdateAffiliateSettings, http.MethodPut,
		"/api/v1/admin/settings/affiliate",
		`{"attribution_window_days":14,"attribution_policy":"first_touch","default_commission_rate":12.5,"manual_review":false,"min_payout_amount":80,"leaderboard_metric":"total_referrals"}`,
		nil))
	if code != response.CodeOK {
		t.Fatalf("update settings want success got code %d", code)
	}
	if got, _ := data["attribution_policy"].(string); got != constants.AttributionPolicyFirstTouch {
		t.Fatalf("policy want first_touch got %v", data["attribution_policy"])
	}

	code, data = decodeEnvelope(t, performAsAdmin(t, h.GetAffiliateSettings, http.MethodGet,
		"/api/v1/admin/settings/affiliate", "", nil))
	if code != response.CodeOK {
		t.Fatalf("reload settings want success got code %d", code)
	}
	if got, _ := data["attribution_window_days"].(float64); got != 14 {
		t.Fatalf("stored window want 14 got %v", data["attribution_window_days"])
	}
	if got, _ := data["min_payout_amount"].(float64); got != 80 {
		t.Fatalf("stored min payout want 80 got %v", data["min_payout_amount"])
	}
}

func TestUpdateAffiliateSettingsRejectsBadPayload(t *testing.T) {
	h, _ := newTestHandler(t)

	code, _ := decodeEnvelope(t, performAsAdmin(t, h.UpdateAffiliateSettings, http.MethodPut,
		"/api/v1/admin/settings/affiliate", `{"attribution_window_days":"not-a-number"}`, nil))
	if code != response.CodeBadRequest {
		t.Fatalf("malformed payload want %d got %d", response.CodeBadRequest, code)
	}
}
