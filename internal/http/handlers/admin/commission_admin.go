package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/repository"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetAdminCommissions 获取佣金账目列表 (Admin)
func (h *Handler) GetAdminCommissions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CommissionListFilter{
		Page:           page,
		PageSize:       pageSize,
		Status:         strings.TrimSpace(c.Query("status")),
		CommissionType: strings.TrimSpace(c.Query("commission_type")),
	}
	if affiliateID, err := strconv.ParseUint(c.Query("affiliate_id"), 10, 64); err == nil {
		filter.AffiliateID = uint(affiliateID)
	}
	if payoutID, err := strconv.ParseUint(c.Query("payout_request_id"), 10, 64); err == nil {
		filter.PayoutRequestID = uint(payoutID)
	}

	commissions, total, err := h.CommissionService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "佣金账目获取失败", err)
		return
	}
	response.SuccessWithPage(c, commissions, response.BuildPagination(page, pageSize, total))
}

// DirectCommissionRequest 手工入账佣金请求
type DirectCommissionRequest struct {
	AffiliateID    uint   `json:"affiliate_id" binding:"required"`
	MemberRef      string `json:"member_ref" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	CommissionType string `json:"commission_type"`
}

// CreateDirectCommission 手工录入一笔佣金（不经归因流程）
func (h *Handler) CreateDirectCommission(c *gin.Context) {
	var req DirectCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "佣金金额无效", nil)
		return
	}

	commission, err := h.CommissionService.RecordDirectCommission(req.AffiliateID, req.MemberRef, amount, req.CommissionType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "推广伙伴不存在", nil)
		case errors.Is(err, service.ErrAffiliateInactive):
			respondError(c, response.CodeForbidden, "推广伙伴未激活", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "佣金数据无效", nil)
		default:
			respondError(c, response.CodeInternal, "佣金入账失败", err)
		}
		return
	}
	response.Success(c, commission)
}
