package admin

import (
	"strconv"
	"strings"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminAuditLogs 获取审计日志列表 (Admin)
func (h *Handler) GetAdminAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.AuditLogListFilter{
		Page:       page,
		PageSize:   pageSize,
		ActorEmail: strings.TrimSpace(c.Query("actor_email")),
		Action:     strings.TrimSpace(c.Query("action")),
	}
	if actorID, err := strconv.ParseUint(c.Query("actor_id"), 10, 64); err == nil {
		filter.ActorID = uint(actorID)
	}

	entries, total, err := h.AuditService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "审计日志获取失败", err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(page, pageSize, total))
}
