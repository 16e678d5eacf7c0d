package public

import (
	"errors"
	"strings"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ConversionRequest 转化归因请求
type ConversionRequest struct {
	ReferralCode   string `json:"referral_code"`
	OrderID        string `json:"order_id" binding:"required"`
	OrderAmount    string `json:"order_amount" binding:"required"`
	ConversionType string `json:"conversion_type"`
}

// AttributeConversion 对订单转化执行归因
// 无法归因（无推广码、窗口外、伙伴停用）时返回 attributed=false，不视为错误。
func (h *Handler) AttributeConversion(c *gin.Context) {
	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.OrderAmount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单金额无效", nil)
		return
	}

	result, err := h.AttributionService.Attribute(service.ConversionInput{
		ReferralCode:   req.ReferralCode,
		OrderID:        req.OrderID,
		OrderAmount:    amount,
		ConversionType: req.ConversionType,
		ClientIP:       c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversionInvalid):
			respondError(c, response.CodeBadRequest, "转化数据无效", nil)
		default:
			respondError(c, response.CodeInternal, "转化归因失败", err)
		}
		return
	}
	response.Success(c, result)
}
