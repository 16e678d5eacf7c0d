package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupAffiliateRepositoryTest(t *testing.T) (*GormAffiliateRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Affiliate{}, &models.Visit{}, &models.Referral{}, &models.Commission{}); err != nil {
		t.Fatalf("migrate affiliate failed: %v", err)
	}
	return NewAffiliateRepository(db), db
}

func createTestAffiliate(t *testing.T, repo *GormAffiliateRepository, name, code, status string) *models.Affiliate {
	t.Helper()
	affiliate := &models.Affiliate{
		Name:          name,
		Email:         strings.ToLower(name) + "@example.com",
		AffiliateCode: code,
		Status:        status,
	}
	if err := repo.Create(affiliate); err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	return affiliate
}

func TestAffiliateListFilters(t *testing.T) {
	repo, _ := setupAffiliateRepositoryTest(t)
	createTestAffiliate(t, repo, "alpha", "AF-ALPHA01", constants.AffiliateStatusActive)
	createTestAffiliate(t, repo, "beta", "AF-BETA001", constants.AffiliateStatusPending)
	createTestAffiliate(t, repo, "gamma", "AF-GAMMA01", constants.AffiliateStatusActive)

	active, total, err := repo.List(AffiliateListFilter{Status: constants.AffiliateStatusActive})
	if err != nil {
		t.Fatalf("list by status failed: %v", err)
	}
	if total != 2 || len(active) != 2 {
		t.Fatalf("active affiliates want 2 got %d", total)
	}

	byCode, total, err := repo.List(AffiliateListFilter{Code: "af-beta001"})
	if err != nil {
		t.Fatalf("list by code failed: %v", err)
	}
	if total != 1 || byCode[0].Name != "beta" {
		t.Fatalf("code lookup should be case-insensitive")
	}

	byKeyword, total, err := repo.List(AffiliateListFilter{Keyword: "gamma@example"})
	if err != nil {
		t.Fatalf("list by keyword failed: %v", err)
	}
	if total != 1 || byKeyword[0].Name != "gamma" {
		t.Fatalf("keyword should match email")
	}
}

func TestGetStatsBatchAggregatesLedger(t *testing.T) {
	repo, db := setupAffiliateRepositoryTest(t)
	earner := createTestAffiliate(t, repo, "earner", "AF-EARN001", constants.AffiliateStatusActive)
	idle := createTestAffiliate(t, repo, "idle", "AF-IDLE001", constants.AffiliateStatusActive)

	for i := 0; i < 3; i++ {
		if err := db.Create(&models.Visit{AffiliateID: earner.ID}).Error; err != nil {
			t.Fatalf("create visit failed: %v", err)
		}
	}
	referrals := []models.Referral{
		{AffiliateID: earner.ID, OrderID: "o-1", Status: constants.ReferralStatusApproved},
		{AffiliateID: earner.ID, OrderID: "o-2", Status: constants.ReferralStatusPending},
		{AffiliateID: earner.ID, OrderID: "o-3", Status: constants.ReferralStatusRejected},
	}
	for i := range referrals {
		if err := db.Create(&referrals[i]).Error; err != nil {
			t.Fatalf("create referral failed: %v", err)
		}
	}
	payoutID := uint(11)
	commissions := []models.Commission{
		{AffiliateID: earner.ID, Amount: models.NewMoneyFromDecimal(decimal.RequireFromString("60.00")), Status: constants.CommissionStatusUnpaid},
		{AffiliateID: earner.ID, Amount: models.NewMoneyFromDecimal(decimal.RequireFromString("40.00")), Status: constants.CommissionStatusUnpaid, PayoutRequestID: &payoutID},
		{AffiliateID: earner.ID, Amount: models.NewMoneyFromDecimal(decimal.RequireFromString("25.00")), Status: constants.CommissionStatusPaid},
	}
	for i := range commissions {
		if err := db.Create(&commissions[i]).Error; err != nil {
			t.Fatalf("create commission failed: %v", err)
		}
	}

	stats, err := repo.GetStatsBatch([]uint{earner.ID, idle.ID})
	if err != nil {
		t.Fatalf("stats batch failed: %v", err)
	}

	agg := stats[earner.ID]
	if agg.VisitCount != 3 {
		t.Fatalf("visit count want 3 got %d", agg.VisitCount)
	}
	if agg.ReferralCount != 2 {
		t.Fatalf("rejected referrals must not count, want 2 got %d", agg.ReferralCount)
	}
	if !agg.TotalCommission.Equal(decimal.RequireFromString("125.00")) {
		t.Fatalf("total commission want 125.00 got %s", agg.TotalCommission)
	}
	if !agg.UnpaidCommission.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("payout-bound rows must not count as withdrawable, want 60.00 got %s", agg.UnpaidCommission)
	}
	if !agg.PaidCommission.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("paid commission want 25.00 got %s", agg.PaidCommission)
	}

	zero := stats[idle.ID]
	if zero.VisitCount != 0 || !zero.TotalCommission.Equal(decimal.Zero) {
		t.Fatalf("idle affiliate should aggregate to zero: %+v", zero)
	}
}
