package service

import (
	"errors"
	"testing"

	"github.com/reflink-next/internal/constants"
)

func TestRecordVisitDirectAndLinkCode(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "tracker", "AF-TRK0001", constants.AffiliateStatusActive)
	link, err := env.affiliateService.CreateLink(affiliate.ID, "newsletter")
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	direct, err := env.visitService.RecordVisit(VisitRecordInput{
		ReferralCode: affiliate.AffiliateCode,
		Referrer:     "https://blog.example.com/post",
		Country:      "us",
		DeviceType:   "desktop",
		ClientIP:     "203.0.113.10",
	})
	if err != nil {
		t.Fatalf("record direct visit failed: %v", err)
	}
	if direct.AffiliateID != affiliate.ID || direct.LinkID != nil {
		t.Fatalf("direct code visit should not bind a link")
	}
	if direct.Country != "US" {
		t.Fatalf("country should be upper-cased, got %q", direct.Country)
	}

	viaLink, err := env.visitService.RecordVisit(VisitRecordInput{
		ReferralCode: link.LinkCode,
		DeviceType:   "mobile",
	})
	if err != nil {
		t.Fatalf("record link visit failed: %v", err)
	}
	if viaLink.LinkID == nil || *viaLink.LinkID != link.ID {
		t.Fatalf("link code visit should bind link %d", link.ID)
	}

	if got := env.reloadAffiliate(t, affiliate.ID).TotalVisits; got != 2 {
		t.Fatalf("total_visits want 2 got %d", got)
	}
}

func TestRecordVisitUnknownCode(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.visitService.RecordVisit(VisitRecordInput{ReferralCode: "AF-NOPE9999"}); !errors.Is(err, ErrUnknownReferralCode) {
		t.Fatalf("unknown code want ErrUnknownReferralCode got %v", err)
	}
}

func TestMarkConvertedIsIdempotent(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "flag", "AF-FLG0001", constants.AffiliateStatusActive)
	visit, err := env.visitService.RecordVisit(VisitRecordInput{ReferralCode: affiliate.AffiliateCode})
	if err != nil {
		t.Fatalf("record visit failed: %v", err)
	}

	if err := env.visitService.MarkConverted(visit.ID); err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	if err := env.visitService.MarkConverted(visit.ID); err != nil {
		t.Fatalf("repeat mark should be a no-op, got %v", err)
	}
	reloaded, err := env.visitService.GetByID(visit.ID)
	if err != nil {
		t.Fatalf("reload visit failed: %v", err)
	}
	if !reloaded.Converted {
		t.Fatalf("visit should stay converted")
	}
}
