package public

import (
	"net/http"
	"testing"

	"github.com/reflink-next/internal/http/response"
)

func TestRecordVisitHappyPath(t *testing.T) {
	h, db := newTestHandler(t)
	affiliate := seedActiveAffiliate(t, db, "AF-VIS0001")

	code, data := decodeEnvelope(t, performJSON(t, h.RecordVisit, http.MethodPost, "/api/v1/public/visits",
		`{"referral_code":"AF-VIS0001","referrer":"https://blog.example.com","device_type":"desktop"}`))
	if code != response.CodeOK {
		t.Fatalf("record visit want success got code %d", code)
	}
	if got, _ := data["affiliate_id"].(float64); uint(got) != affiliate.ID {
		t.Fatalf("affiliate_id mismatch: %v", data["affiliate_id"])
	}
	if visitID, _ := data["visit_id"].(float64); visitID == 0 {
		t.Fatalf("visit_id should be assigned, got %v", data["visit_id"])
	}
}

func TestRecordVisitUnknownCode(t *testing.T) {
	h, _ := newTestHandler(t)

	code, _ := decodeEnvelope(t, performJSON(t, h.RecordVisit, http.MethodPost, "/api/v1/public/visits",
		`{"referral_code":"AF-GHOST99"}`))
	if code != response.CodeNotFound {
		t.Fatalf("unknown code want %d got %d", response.CodeNotFound, code)
	}
}

func TestRecordVisitMissingCode(t *testing.T) {
	h, _ := newTestHandler(t)

	code, _ := decodeEnvelope(t, performJSON(t, h.RecordVisit, http.MethodPost, "/api/v1/public/visits", `{}`))
	if code != response.CodeBadRequest {
		t.Fatalf("missing referral_code want %d got %d", response.CodeBadRequest, code)
	}
}
