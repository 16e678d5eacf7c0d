package admin

import (
	"errors"

	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAffiliateSettings 获取推广配置
func (h *Handler) GetAffiliateSettings(c *gin.Context) {
	setting, err := h.SettingService.GetAffiliateSetting(h.Config.Affiliate)
	if err != nil {
		respondError(c, response.CodeInternal, "推广配置获取失败", err)
		return
	}
	response.Success(c, setting)
}

// UpdateAffiliateSettings 更新推广配置
func (h *Handler) UpdateAffiliateSettings(c *gin.Context) {
	var req service.AffiliateSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	updated, err := h.SettingService.UpdateAffiliateSetting(req)
	if err != nil {
		if errors.Is(err, service.ErrAffiliateConfigInvalid) {
			respondError(c, response.CodeBadRequest, "推广配置不合法", nil)
			return
		}
		respondError(c, response.CodeInternal, "推广配置保存失败", err)
		return
	}
	response.Success(c, updated)
}

// TestEmailRequest 测试邮件请求
type TestEmailRequest struct {
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendTestEmail 发送 SMTP 测试邮件
func (h *Handler) SendTestEmail(c *gin.Context) {
	var req TestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	if err := h.EmailService.SendCustomEmail(req.To, req.Subject, req.Body); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled):
			respondError(c, response.CodeBadRequest, "邮件服务未启用", nil)
		case errors.Is(err, service.ErrEmailServiceNotConfigured):
			respondError(c, response.CodeBadRequest, "邮件服务未配置", nil)
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "收件邮箱无效", nil)
		default:
			respondError(c, response.CodeInternal, "测试邮件发送失败", err)
		}
		return
	}
	response.SuccessWithMsg(c, "测试邮件已发送", nil)
}
