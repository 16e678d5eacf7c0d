package public

import (
	"errors"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
)

// VisitRecordRequest 访问上报请求
type VisitRecordRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
	Referrer     string `json:"referrer"`
	UserAgent    string `json:"user_agent"`
	Country      string `json:"country"`
	DeviceType   string `json:"device_type"`
}

// RecordVisit 记录推广访问
func (h *Handler) RecordVisit(c *gin.Context) {
	var req VisitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.GetHeader("User-Agent")
	}

	visit, err := h.VisitService.RecordVisit(service.VisitRecordInput{
		ReferralCode: req.ReferralCode,
		Referrer:     req.Referrer,
		UserAgent:    userAgent,
		Country:      req.Country,
		DeviceType:   req.DeviceType,
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownReferralCode):
			respondError(c, response.CodeNotFound, "推广码不存在", nil)
		default:
			respondError(c, response.CodeInternal, "访问记录保存失败", err)
		}
		return
	}
	response.Success(c, gin.H{
		"visit_id":     visit.ID,
		"affiliate_id": visit.AffiliateID,
	})
}
