package service

import (
	"time"

	"github.com/reflink-next/internal/constants"
	"github.com/reflink-next/internal/models"
)

const leaderboardSize = 10

// LeaderboardService 排行榜聚合服务
// 快照是当前账本的纯函数：全量覆盖写入 settings，可安全重复执行。
type LeaderboardService struct {
	affiliateService *AffiliateService
	settingService   *SettingService
	auditService     *AuditService
}

// NewLeaderboardService 创建排行榜服务
func NewLeaderboardService(
	affiliateService *AffiliateService,
	settingService *SettingService,
	auditService *AuditService,
) *LeaderboardService {
	return &LeaderboardService{
		affiliateService: affiliateService,
		settingService:   settingService,
		auditService:     auditService,
	}
}

// LeaderboardEntry 排行榜单条
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	AffiliateID    uint   `json:"affiliate_id"`
	AffiliateCode  string `json:"affiliate_code"`
	Name           string `json:"name"`
	TotalEarnings  string `json:"total_earnings"`
	TotalReferrals int64  `json:"total_referrals"`
}

// Recompute 重建排行榜快照
// force=false 时，距上次重建不足节奏窗口则短路跳过并返回 0。
func (s *LeaderboardService) Recompute(force bool) (int, error) {
	if s.affiliateService == nil || s.settingService == nil {
		return 0, ErrNotFound
	}
	setting, err := s.affiliateService.Setting()
	if err != nil {
		return 0, err
	}

	if !force && setting.LeaderboardCadenceHours > 0 {
		lastUpdate, err := s.lastUpdate()
		if err != nil {
			return 0, err
		}
		cadence := time.Duration(setting.LeaderboardCadenceHours) * time.Hour
		if !lastUpdate.IsZero() && time.Since(lastUpdate) < cadence {
			return 0, nil
		}
	}

	rows, err := s.affiliateService.repo.AggregateLeaderboard(setting.LeaderboardMetric, leaderboardSize)
	if err != nil {
		return 0, err
	}

	entries := make([]interface{}, 0, len(rows))
	for i, row := range rows {
		affiliate, err := s.affiliateService.repo.GetByID(row.AffiliateID)
		if err != nil {
			return 0, err
		}
		if affiliate == nil {
			continue
		}
		entries = append(entries, map[string]interface{}{
			"rank":            i + 1,
			"affiliate_id":    affiliate.ID,
			"affiliate_code":  affiliate.AffiliateCode,
			"name":            affiliate.Name,
			"total_earnings":  row.TotalEarnings.Round(2).StringFixed(2),
			"total_referrals": row.ReferralCount,
		})
	}

	now := time.Now()
	if _, err := s.settingService.Update(constants.SettingKeyLeaderboardSnapshot, map[string]interface{}{
		"metric":  setting.LeaderboardMetric,
		"entries": entries,
		constants.SettingFieldLastLeaderboardUpdate: now.Format(time.RFC3339),
	}); err != nil {
		return 0, err
	}

	s.auditService.Record(SystemActor(), constants.AuditActionLeaderboardRebuilt,
		map[string]interface{}{
			"metric":             setting.LeaderboardMetric,
			"affiliates_updated": len(entries),
		},
		"",
	)
	return len(entries), nil
}

// Snapshot 读取当前排行榜快照（可能为空）
func (s *LeaderboardService) Snapshot() (models.JSON, error) {
	if s.settingService == nil {
		return nil, nil
	}
	return s.settingService.GetByKey(constants.SettingKeyLeaderboardSnapshot)
}

func (s *LeaderboardService) lastUpdate() (time.Time, error) {
	snapshot, err := s.settingService.GetByKey(constants.SettingKeyLeaderboardSnapshot)
	if err != nil {
		return time.Time{}, err
	}
	if snapshot == nil {
		return time.Time{}, nil
	}
	raw, ok := snapshot[constants.SettingFieldLastLeaderboardUpdate]
	if !ok {
		return time.Time{}, nil
	}
	text := parseSettingString(raw)
	if text == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, nil
	}
	return parsed, nil
}
