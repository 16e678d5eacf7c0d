package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/repository"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminReferrals 获取归因记录列表 (Admin)
func (h *Handler) GetAdminReferrals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ReferralListFilter{
		Page:           page,
		PageSize:       pageSize,
		OrderID:        strings.TrimSpace(c.Query("order_id")),
		Status:         strings.TrimSpace(c.Query("status")),
		ConversionType: strings.TrimSpace(c.Query("conversion_type")),
	}
	if affiliateID, err := strconv.ParseUint(c.Query("affiliate_id"), 10, 64); err == nil {
		filter.AffiliateID = uint(affiliateID)
	}

	referrals, total, err := h.AttributionService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "归因记录获取失败", err)
		return
	}
	response.SuccessWithPage(c, referrals, response.BuildPagination(page, pageSize, total))
}

// ReviewReferralRequest 归因复核请求
type ReviewReferralRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ReviewReferral 复核待定归因（通过或驳回）
func (h *Handler) ReviewReferral(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ReviewReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Approve == nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	referral, err := h.AttributionService.ReviewReferral(actor, id, *req.Approve, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "归因记录不存在", nil)
		case errors.Is(err, service.ErrReferralStatusInvalid):
			respondError(c, response.CodeConflict, "归因记录不在待定状态", nil)
		default:
			respondError(c, response.CodeInternal, "归因复核失败", err)
		}
		return
	}
	response.Success(c, referral)
}
