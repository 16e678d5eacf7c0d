package service

import (
	"testing"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
	"gorm.io/gorm"
)

func TestReconcileDetectsAndRepairsDrift(t *testing.T) {
	env := setupServiceTest(t)
	clean := env.createAffiliate(t, "clean", "AF-CLN0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, clean.ID, "40.00")

	drifted := env.createAffiliate(t, "drift", "AF-DFT0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, drifted.ID, "100.00")
	// 人为破坏缓存聚合，模拟历史数据漂移。
	if err := env.db.Model(&models.Affiliate{}).Where("id = ?", drifted.ID).Updates(map[string]interface{}{
		"total_earnings":  gorm.Expr("total_earnings + 55"),
		"total_referrals": 7,
	}).Error; err != nil {
		t.Fatalf("inject drift failed: %v", err)
	}

	report, err := env.reconcileService.ReconcileTotals()
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if report.Checked != 2 {
		t.Fatalf("checked want 2 got %d", report.Checked)
	}
	if report.Drifted != 1 {
		t.Fatalf("drifted want 1 got %d", report.Drifted)
	}
	if len(report.Items) != 1 || report.Items[0].AffiliateID != drifted.ID {
		t.Fatalf("drift item should name affiliate %d", drifted.ID)
	}

	repaired := env.reloadAffiliate(t, drifted.ID)
	if !repaired.TotalEarnings.Decimal.Equal(mustDecimal(t, "100.00")) {
		t.Fatalf("total_earnings should be rewritten to 100.00, got %s", repaired.TotalEarnings.Decimal)
	}
	if repaired.TotalReferrals != 0 {
		t.Fatalf("total_referrals should be rewritten to 0, got %d", repaired.TotalReferrals)
	}

	again, err := env.reconcileService.ReconcileTotals()
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if again.Drifted != 0 {
		t.Fatalf("post-repair run should be clean, got %d drifted", again.Drifted)
	}
}
