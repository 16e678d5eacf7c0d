package public

import (
	"net/http"
	"testing"

	"github.com/reflink-next/internal/http/response"
)

func TestAttributeConversionRejectsBadPayload(t *testing.T) {
	h, _ := newTestHandler(t)

	code, _ := decodeEnvelope(t, performJSON(t, h.AttributeConversion, http.MethodPost, "/api/v1/public/conversions", `{"order_id":"x"}`))
	if code != response.CodeBadRequest {
		t.Fatalf("missing amount want code %d got %d", response.CodeBadRequest, code)
	}

	code, _ = decodeEnvelope(t, performJSON(t, h.AttributeConversion, http.MethodPost, "/api/v1/public/conversions",
		`{"order_id":"x","order_amount":"abc"}`))
	if code != response.CodeBadRequest {
		t.Fatalf("non-numeric amount want code %d got %d", response.CodeBadRequest, code)
	}

	code, _ = decodeEnvelope(t, performJSON(t, h.AttributeConversion, http.MethodPost, "/api/v1/public/conversions",
		`{"order_id":"x","order_amount":"-10"}`))
	if code != response.CodeBadRequest {
		t.Fatalf("negative amount want code %d got %d", response.CodeBadRequest, code)
	}
}

func TestAttributeConversionAttributesKnownCode(t *testing.T) {
	h, db := newTestHandler(t)
	affiliate := seedActiveAffiliate(t, db, "AF-CONV001")

	code, data := decodeEnvelope(t, performJSON(t, h.AttributeConversion, http.MethodPost, "/api/v1/public/conversions",
		`{"referral_code":"AF-CONV001","order_id":"order-h-1","order_amount":"200.00"}`))
	if code != response.CodeOK {
		t.Fatalf("attribute want success got code %d", code)
	}
	if attributed, _ := data["attributed"].(bool); !attributed {
		t.Fatalf("known code should attribute, got %v", data)
	}

	referral, ok := data["referral"].(map[string]interface{})
	if !ok {
		t.Fatalf("attributed result should carry referral, got %v", data)
	}
	if got, _ := referral["commission_amount"].(string); got != "20.00" {
		t.Fatalf("commission at 10%% of 200.00 expected, got %v", referral["commission_amount"])
	}
	if got, _ := referral["affiliate_id"].(float64); uint(got) != affiliate.ID {
		t.Fatalf("referral affiliate mismatch: %v", referral["affiliate_id"])
	}
}

func TestAttributeConversionUnknownCodeIsOrganic(t *testing.T) {
	h, _ := newTestHandler(t)

	code, data := decodeEnvelope(t, performJSON(t, h.AttributeConversion, http.MethodPost, "/api/v1/public/conversions",
		`{"referral_code":"AF-GHOST99","order_id":"order-h-2","order_amount":"50.00"}`))
	if code != response.CodeOK {
		t.Fatalf("organic conversion should not be an error, got code %d", code)
	}
	if attributed, _ := data["attributed"].(bool); attributed {
		t.Fatalf("unknown code must not attribute")
	}
}
