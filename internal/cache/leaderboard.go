package cache

import (
	"context"
	"time"

	"github.com/reflink-next/internal/models"
)

const (
	leaderboardCacheKey = "leaderboard:snapshot"
	leaderboardCacheTTL = 5 * time.Minute
)

// GetLeaderboardSnapshot 获取排行榜快照缓存
func GetLeaderboardSnapshot(ctx context.Context) (models.JSON, bool, error) {
	var snapshot models.JSON
	hit, err := GetJSON(ctx, leaderboardCacheKey, &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return snapshot, true, nil
}

// SetLeaderboardSnapshot 写入排行榜快照缓存
func SetLeaderboardSnapshot(ctx context.Context, snapshot models.JSON) error {
	if snapshot == nil {
		return nil
	}
	return SetJSON(ctx, leaderboardCacheKey, snapshot, leaderboardCacheTTL)
}

// DelLeaderboardSnapshot 删除排行榜快照缓存
func DelLeaderboardSnapshot(ctx context.Context) error {
	return Del(ctx, leaderboardCacheKey)
}
