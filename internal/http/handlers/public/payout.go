package public

import (
	"errors"
	"strings"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PayoutApplyRequest 提现申请请求
// 要求同时给出伙伴 ID 与推广码做配对校验，避免凭 ID 冒领。
type PayoutApplyRequest struct {
	AffiliateID   uint   `json:"affiliate_id" binding:"required"`
	AffiliateCode string `json:"affiliate_code" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
}

// ApplyPayout 伙伴提交提现申请
func (h *Handler) ApplyPayout(c *gin.Context) {
	var req PayoutApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "提现金额无效", nil)
		return
	}

	affiliate, err := h.AffiliateService.GetByID(req.AffiliateID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "推广伙伴不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "提现申请失败", err)
		return
	}
	if !strings.EqualFold(affiliate.AffiliateCode, strings.TrimSpace(req.AffiliateCode)) {
		respondError(c, response.CodeForbidden, "推广码与伙伴不匹配", nil)
		return
	}

	payout, err := h.PayoutService.RequestPayout(req.AffiliateID, amount, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "推广伙伴不存在", nil)
		case errors.Is(err, service.ErrAffiliateInactive):
			respondError(c, response.CodeForbidden, "推广伙伴未激活", nil)
		case errors.Is(err, service.ErrPayoutAmountInvalid):
			respondError(c, response.CodeBadRequest, "提现金额不符合要求", nil)
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, response.CodeBadRequest, "可提现余额不足", nil)
		default:
			respondError(c, response.CodeInternal, "提现申请失败", err)
		}
		return
	}
	response.Success(c, payout)
}
