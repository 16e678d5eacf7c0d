package service

import (
	"testing"

	"github.com/reflink-next/internal/constants"
)

func TestRecomputeBuildsRankedSnapshot(t *testing.T) {
	env := setupServiceTest(t)
	top := env.createAffiliate(t, "top", "AF-TOP0001", constants.AffiliateStatusActive)
	mid := env.createAffiliate(t, "mid", "AF-MID0001", constants.AffiliateStatusActive)
	env.createUnpaidCommission(t, top.ID, "500.00")
	env.createUnpaidCommission(t, mid.ID, "120.00")

	count, err := env.leaderboardService.Recompute(true)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("entries want 2 got %d", count)
	}

	snapshot, err := env.leaderboardService.Snapshot()
	if err != nil {
		t.Fatalf("load snapshot failed: %v", err)
	}
	if snapshot == nil {
		t.Fatalf("snapshot should exist after recompute")
	}
	if got := parseSettingString(snapshot["metric"]); got != constants.LeaderboardMetricEarnings {
		t.Fatalf("metric want %s got %s", constants.LeaderboardMetricEarnings, got)
	}
	if parseSettingString(snapshot[constants.SettingFieldLastLeaderboardUpdate]) == "" {
		t.Fatalf("snapshot should record rebuild time")
	}

	entries, ok := snapshot["entries"].([]interface{})
	if !ok || len(entries) != 2 {
		t.Fatalf("snapshot entries want 2, got %#v", snapshot["entries"])
	}
	head, ok := entries[0].(map[string]interface{})
	if !ok {
		t.Fatalf("entry shape unexpected: %#v", entries[0])
	}
	if got := parseSettingString(head["affiliate_code"]); got != top.AffiliateCode {
		t.Fatalf("rank 1 want %s got %s", top.AffiliateCode, got)
	}
	if got := parseSettingString(head["total_earnings"]); got != "500.00" {
		t.Fatalf("rank 1 earnings want 500.00 got %s", got)
	}
}

func TestRecomputeHonorsCadence(t *testing.T) {
	env := setupServiceTest(t)
	env.createUnpaidCommission(t, env.createAffiliate(t, "pace", "AF-PCE0001", constants.AffiliateStatusActive).ID, "10.00")
	if _, err := env.settingService.UpdateAffiliateSetting(AffiliateSetting{
		AttributionWindowDays:   30,
		AttributionPolicy:       constants.AttributionPolicyLastTouch,
		DefaultCommissionRate:   10,
		MinPayoutAmount:         50,
		LeaderboardMetric:       constants.LeaderboardMetricEarnings,
		LeaderboardCadenceHours: 6,
	}); err != nil {
		t.Fatalf("set cadence failed: %v", err)
	}

	first, err := env.leaderboardService.Recompute(false)
	if err != nil {
		t.Fatalf("first recompute failed: %v", err)
	}
	if first != 1 {
		t.Fatalf("first run entries want 1 got %d", first)
	}

	second, err := env.leaderboardService.Recompute(false)
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}
	if second != 0 {
		t.Fatalf("within cadence window recompute should short-circuit, got %d", second)
	}

	forced, err := env.leaderboardService.Recompute(true)
	if err != nil {
		t.Fatalf("forced recompute failed: %v", err)
	}
	if forced != 1 {
		t.Fatalf("force should bypass cadence, got %d", forced)
	}
}
