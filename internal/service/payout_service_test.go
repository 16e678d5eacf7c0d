package service

import (
	"errors"
	"testing"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
)

type stubAuthorizer struct {
	allow bool
}

func (a stubAuthorizer) Authorize(actorID uint, object, action string) (bool, error) {
	return a.allow, nil
}

func adminActor(id uint) AuditActor {
	return AuditActor{ID: &id, Email: "ops@reflink.local", Role: "admin"}
}

func TestRequestPayoutBindsCommissionsInOrder(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.newPayoutService(t, stubAuthorizer{allow: true})
	affiliate := env.createAffiliate(t, "payee", "AF-PAY0001", constants.AffiliateStatusActive)
	first := env.createUnpaidCommission(t, affiliate.ID, "40.00")
	second := env.createUnpaidCommission(t, affiliate.ID, "60.00")

	req, err := svc.RequestPayout(affiliate.ID, mustDecimal(t, "100.00"), "203.0.113.5")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if req.Status != constants.PayoutStatusRequested {
		t.Fatalf("status want requested got %s", req.Status)
	}

	for _, id := range []uint{first.ID, second.ID} {
		var commission models.Commission
		if err := env.db.First(&commission, id).Error; err != nil {
			t.Fatalf("load commission %d failed: %v", id, err)
		}
		if commission.PayoutRequestID == nil || *commission.PayoutRequestID != req.ID {
			t.Fatalf("commission %d should be bound to payout %d", id, req.ID)
		}
	}
	if got := env.reloadAffiliate(t, affiliate.ID).AvailableBalance.Decimal; !got.Equal(mustDecimal(t, "0")) {
		t.Fatalf("available_balance want 0 got %s", got)
	}
}

func TestRequestPayoutSplitsTailCommission(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.newPayoutService(t, stubAuthorizer{allow: true})
	affiliate := env.createAffiliate(t, "split", "AF-SPL0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, affiliate.ID, "80.00")

	req, err := svc.RequestPayout(affiliate.ID, mustDecimal(t, "50.00"), "")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	var bound []models.Commission
	if err := env.db.Where("affiliate_id = ? AND payout_request_id = ?", affiliate.ID, req.ID).Find(&bound).Error; err != nil {
		t.Fatalf("load bound commissions failed: %v", err)
	}
	if len(bound) != 1 || !bound[0].Amount.Decimal.Equal(mustDecimal(t, "50.00")) {
		t.Fatalf("bound row should carry exactly 50.00")
	}

	var remainder []models.Commission
	if err := env.db.Where("affiliate_id = ? AND payout_request_id IS NULL", affiliate.ID).Find(&remainder).Error; err != nil {
		t.Fatalf("load remainder failed: %v", err)
	}
	if len(remainder) != 1 {
		t.Fatalf("remainder rows want 1 got %d", len(remainder))
	}
	if !remainder[0].Amount.Decimal.Equal(mustDecimal(t, "30.00")) {
		t.Fatalf("remainder want 30.00 got %s", remainder[0].Amount.Decimal)
	}
	if remainder[0].ReferralID != nil {
		t.Fatalf("remainder row must not carry a referral_id")
	}
	if remainder[0].Status != constants.CommissionStatusUnpaid {
		t.Fatalf("remainder should stay unpaid, got %s", remainder[0].Status)
	}

	if got := env.reloadAffiliate(t, affiliate.ID).AvailableBalance.Decimal; !got.Equal(mustDecimal(t, "30.00")) {
		t.Fatalf("available_balance want 30.00 got %s", got)
	}
}

func TestRequestPayoutValidation(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.newPayoutService(t, stubAuthorizer{allow: true})
	affiliate := env.createAffiliate(t, "checks", "AF-CHK0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, affiliate.ID, "60.00")

	if _, err := svc.RequestPayout(affiliate.ID, mustDecimal(t, "10.00"), ""); !errors.Is(err, ErrPayoutAmountInvalid) {
		t.Fatalf("below minimum want ErrPayoutAmountInvalid got %v", err)
	}
	if _, err := svc.RequestPayout(affiliate.ID, mustDecimal(t, "-5"), ""); !errors.Is(err, ErrPayoutAmountInvalid) {
		t.Fatalf("negative amount want ErrPayoutAmountInvalid got %v", err)
	}
	if _, err := svc.RequestPayout(affiliate.ID, mustDecimal(t, "90.00"), ""); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw want ErrInsufficientBalance got %v", err)
	}

	suspended := env.createAffiliate(t, "cold", "AF-CLD0001", constants.AffiliateStatusSuspended)
	if _, err := svc.RequestPayout(suspended.ID, mustDecimal(t, "60.00"), ""); !errors.Is(err, ErrAffiliateInactive) {
		t.Fatalf("suspended affiliate want ErrAffiliateInactive got %v", err)
	}
}

func TestAdvanceHappyPathMarksCommissionsPaid(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.newPayoutService(t, stubAuthorizer{allow: true})
	affiliate := env.createAffiliate(t, "lifecycle", "AF-LCY0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, affiliate.ID, "120.00")

	req, err := svc.RequestPayout(affiliate.ID, mustDecimal(t, "120.00"), "")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	processing, err := svc.Advance(adminActor(1), req.ID, constants.PayoutStatusProcessing, "", nil, "")
	if err != nil {
		t.Fatalf("advance to processing failed: %v", err)
	}
	if processing.Status != constants.PayoutStatusProcessing {
		t.Fatalf("status want processing got %s", processing.Status)
	}

	completed, err := svc.Advance(adminActor(1), req.ID, constants.PayoutStatusCompleted, "", nil, "")
	if err != nil {
		t.Fatalf("advance to completed failed: %v", err)
	}
	if completed.Status != constants.PayoutStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("completed payout should carry completed_at")
	}

	var commissions []models.Commission
	if err := env.db.Where("payout_request_id = ?", req.ID).Find(&commissions).Error; err != nil {
		t.Fatalf("load commissions failed: %v", err)
	}
	for _, commission := range commissions {
		if commission.Status != constants.CommissionStatusPaid || commission.PaidAt == nil {
			t.Fatalf("commission %d should be paid with paid_at set", commission.ID)
		}
	}

	if _, err := svc.Advance(adminActor(1), req.ID, constants.PayoutStatusProcessing, "", nil, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed is terminal, want ErrInvalidTransition got %v", err)
	}
}

func TestAdvanceFailureRestoresBalance(t *testing.T) {
	env := setupServiceTest(t)
	svc := env.newPayoutService(t, stubAuthorizer{allow: true})
	affiliate := env.createAffiliate(t, "refund", "AF-RFD0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, affiliate.ID, "90.00")

	req, err := svc.RequestPayout(affiliate.ID, mustDecimal(t, "90.00"), "")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if got := env.reloadAffiliate(t, affiliate.ID).AvailableBalance.Decimal; !got.Equal(mustDecimal(t, "0")) {
		t.Fatalf("balance should be held, got %s", got)
	}

	failed, err := svc.Advance(adminActor(1), req.ID, constants.PayoutStatusFailed, "银行卡信息有误", nil, "")
	if err != nil {
		t.Fatalf("advance to failed errored: %v", err)
	}
	if failed.Status != constants.PayoutStatusFailed || failed.FailureReason == "" {
		t.Fatalf("failed payout should carry failure reason")
	}

	var unbound int64
	if err := env.db.Model(&models.Commission{}).
		Where("affiliate_id = ? AND payout_request_id IS NULL AND status = ?", affiliate.ID, constants.CommissionStatusUnpaid).
		Count(&unbound).Error; err != nil {
		t.Fatalf("count unbound failed: %v", err)
	}
	if unbound != 1 {
		t.Fatalf("commission should be released, unbound rows got %d", unbound)
	}
	if got := env.reloadAffiliate(t, affiliate.ID).AvailableBalance.Decimal; !got.Equal(mustDecimal(t, "90.00")) {
		t.Fatalf("available_balance should be restored to 90.00, got %s", got)
	}
}

func TestAdvanceValidatesStatusAndPermission(t *testing.T) {
	env := setupServiceTest(t)
	affiliate := env.createAffiliate(t, "guard", "AF-GRD0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, affiliate.ID, "70.00")

	allowed := env.newPayoutService(t, stubAuthorizer{allow: true})
	req, err := allowed.RequestPayout(affiliate.ID, mustDecimal(t, "70.00"), "")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	if _, err := allowed.Advance(adminActor(1), req.ID, "finished", "", nil, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status want ErrInvalidTransition got %v", err)
	}
	if _, err := allowed.Advance(adminActor(1), req.ID, constants.PayoutStatusCompleted, "", nil, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("requested→completed must be rejected, got %v", err)
	}

	denied := env.newPayoutService(t, stubAuthorizer{allow: false})
	if _, err := denied.Advance(adminActor(2), req.ID, constants.PayoutStatusProcessing, "", nil, ""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("denied actor want ErrPermissionDenied got %v", err)
	}
}
