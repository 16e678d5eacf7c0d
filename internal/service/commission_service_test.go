package service

import (
	"errors"
	"testing"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
)

func TestRecordDirectCommissionUpdatesBalance(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "direct", "AF-DIR0001", constants.AffiliateStatusActive)

	commission, err := env.commissionService.RecordDirectCommission(affiliate.ID, "member-42", mustDecimal(t, "75.50"), "")
	if err != nil {
		t.Fatalf("record direct commission failed: %v", err)
	}
	if commission.CommissionType != constants.CommissionTypeOneTime {
		t.Fatalf("blank type should default to one_time, got %s", commission.CommissionType)
	}
	if commission.Status != constants.CommissionStatusUnpaid {
		t.Fatalf("status want unpaid got %s", commission.Status)
	}
	if commission.ReferralID != nil {
		t.Fatalf("direct commission must not reference a referral")
	}

	stats := env.reloadAffiliate(t, affiliate.ID)
	if !stats.TotalEarnings.Decimal.Equal(mustDecimal(t, "75.50")) {
		t.Fatalf("total_earnings want 75.50 got %s", stats.TotalEarnings.Decimal)
	}
	if !stats.AvailableBalance.Decimal.Equal(mustDecimal(t, "75.50")) {
		t.Fatalf("available_balance want 75.50 got %s", stats.AvailableBalance.Decimal)
	}

	recurring, err := env.commissionService.RecordDirectCommission(affiliate.ID, "member-42", mustDecimal(t, "10"), constants.CommissionTypeRecurring)
	if err != nil {
		t.Fatalf("record recurring commission failed: %v", err)
	}
	if recurring.CommissionType != constants.CommissionTypeRecurring {
		t.Fatalf("recurring type should be preserved, got %s", recurring.CommissionType)
	}
}

func TestRecordDirectCommissionValidation(t *testing.T) {
	env := setupServiceTest(t)
	active := env.createAffiliate(t, "ok", "AF-OKK0001", constants.AffiliateStatusActive)
	if _, err := env.commissionService.RecordDirectCommission(active.ID, "m", mustDecimal(t, "0"), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero amount want ErrInvalidInput got %v", err)
	}

	suspended := env.createAffiliate(t, "no", "AF-NOO0001", constants.AffiliateStatusSuspended)
	if _, err := env.commissionService.RecordDirectCommission(suspended.ID, "m", mustDecimal(t, "5"), ""); !errors.Is(err, ErrAffiliateInactive) {
		t.Fatalf("suspended affiliate want ErrAffiliateInactive got %v", err)
	}
}

func TestCommissionForTxDeduplicatesByReferral(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "dedupe", "AF-DDP0001", constants.AffiliateStatusActive)

	referral := &models.Referral{
		AffiliateID:      affiliate.ID,
		OrderID:          "order-ded-1",
		OrderAmount:      models.NewMoneyFromDecimal(mustDecimal(t, "100")),
		RatePercent:      models.NewMoneyFromDecimal(mustDecimal(t, "10")),
		CommissionAmount: models.NewMoneyFromDecimal(mustDecimal(t, "10.00")),
		Status:           constants.ReferralStatusApproved,
		ConversionType:   constants.ConversionTypeOneTime,
	}
	if err := env.referralRepo.Create(referral); err != nil {
		t.Fatalf("create referral failed: %v", err)
	}
	first, err := env.commissionService.CommissionForTx(env.db, referral)
	if err != nil {
		t.Fatalf("first materialize failed: %v", err)
	}
	second, err := env.commissionService.CommissionForTx(env.db, referral)
	if err != nil {
		t.Fatalf("repeat materialize failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat materialize should return the existing entry")
	}

	var count int64
	if err := env.db.Model(&models.Commission{}).Where("referral_id = ?", referral.ID).Count(&count).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("commission rows want 1 got %d", count)
	}
}
