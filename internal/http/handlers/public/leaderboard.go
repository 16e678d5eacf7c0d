package public

import (
	"github.com/reflink-next/internal/cache"
	"github.com/reflink-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard 获取当前排行榜快照
func (h *Handler) GetLeaderboard(c *gin.Context) {
	if snapshot, hit, err := cache.GetLeaderboardSnapshot(c.Request.Context()); err == nil && hit {
		response.Success(c, snapshot)
		return
	}

	snapshot, err := h.LeaderboardService.Snapshot()
	if err != nil {
		respondError(c, response.CodeInternal, "排行榜获取失败", err)
		return
	}
	if snapshot == nil {
		response.Success(c, gin.H{"entries": []interface{}{}})
		return
	}
	_ = cache.SetLeaderboardSnapshot(c.Request.Context(), snapshot)
	response.Success(c, snapshot)
}
