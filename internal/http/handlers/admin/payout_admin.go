package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/repository"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminPayouts 获取提现申请列表 (Admin)
func (h *Handler) GetAdminPayouts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if affiliateID, err := strconv.ParseUint(c.Query("affiliate_id"), 10, 64); err == nil {
		filter.AffiliateID = uint(affiliateID)
	}

	payouts, total, err := h.PayoutService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "提现申请获取失败", err)
		return
	}
	response.SuccessWithPage(c, payouts, response.BuildPagination(page, pageSize, total))
}

// GetAdminPayout 获取提现申请详情 (Admin)
func (h *Handler) GetAdminPayout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payout, err := h.PayoutService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "提现申请不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "提现申请获取失败", err)
		return
	}
	response.Success(c, payout)
}

// AdvancePayoutRequest 提现状态推进请求
type AdvancePayoutRequest struct {
	Status        string `json:"status" binding:"required"`
	FailureReason string `json:"failure_reason"`
	CompletedAt   string `json:"completed_at"`
}

// AdvancePayoutStatus 推进提现状态机
// requested → processing → completed|failed；requested → failed。
func (h *Handler) AdvancePayoutStatus(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdvancePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	var completedAt *time.Time
	if trimmed := strings.TrimSpace(req.CompletedAt); trimmed != "" {
		parsed, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			respondError(c, response.CodeBadRequest, "完成时间格式无效", nil)
			return
		}
		completedAt = &parsed
	}

	payout, err := h.PayoutService.Advance(actor, id, req.Status, req.FailureReason, completedAt, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			respondError(c, response.CodeForbidden, "无提现处理权限", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "提现申请不存在", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "提现状态流转不合法", nil)
		default:
			respondError(c, response.CodeInternal, "提现状态更新失败", err)
		}
		return
	}
	response.Success(c, payout)
}
