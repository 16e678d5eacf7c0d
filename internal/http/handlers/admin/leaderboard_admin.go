package admin

import (
	"github.com/reflink-next/internal/cache"
	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/queue"

	"github.com/gin-gonic/gin"
)

// RebuildLeaderboardRequest 排行榜重建请求
type RebuildLeaderboardRequest struct {
	Force bool `json:"force"`
	Async bool `json:"async"`
}

// RebuildLeaderboard 重建排行榜快照
// async 时仅投递任务；否则同步重建并返回条目数。
func (h *Handler) RebuildLeaderboard(c *gin.Context) {
	var req RebuildLeaderboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// body 可省略，默认同步强制重建
		req = RebuildLeaderboardRequest{Force: true}
	}

	if req.Async && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueLeaderboardRebuild(queue.LeaderboardRebuildPayload{Force: req.Force}); err != nil {
			respondError(c, response.CodeInternal, "排行榜任务投递失败", err)
			return
		}
		response.SuccessWithMsg(c, "任务已投递", nil)
		return
	}

	count, err := h.LeaderboardService.Recompute(req.Force)
	if err != nil {
		respondError(c, response.CodeInternal, "排行榜重建失败", err)
		return
	}
	_ = cache.DelLeaderboardSnapshot(c.Request.Context())
	response.Success(c, gin.H{"entries": count})
}

// RunReconcile 触发缓存汇总对账
func (h *Handler) RunReconcile(c *gin.Context) {
	report, err := h.ReconcileService.ReconcileTotals()
	if err != nil {
		respondError(c, response.CodeInternal, "对账执行失败", err)
		return
	}
	response.Success(c, report)
}
