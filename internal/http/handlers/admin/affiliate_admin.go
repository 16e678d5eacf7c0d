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

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "路径参数无效", nil)
		return 0, false
	}
	return uint(id), true
}

// RegisterAffiliateRequest 注册推广伙伴请求
type RegisterAffiliateRequest struct {
	Name              string `json:"name" binding:"required"`
	Email             string `json:"email" binding:"required"`
	CommissionRate    string `json:"commission_rate"`
	PayoutMethod      string `json:"payout_method"`
	PayoutDestination string `json:"payout_destination"`
}

// RegisterAffiliate 注册推广伙伴
func (h *Handler) RegisterAffiliate(c *gin.Context) {
	var req RegisterAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	var rate *decimal.Decimal
	if strings.TrimSpace(req.CommissionRate) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(req.CommissionRate))
		if err != nil {
			respondError(c, response.CodeBadRequest, "佣金比例无效", nil)
			return
		}
		rate = &parsed
	}

	affiliate, err := h.AffiliateService.Register(service.AffiliateRegisterInput{
		Name:              req.Name,
		Email:             req.Email,
		CommissionRate:    rate,
		PayoutMethod:      req.PayoutMethod,
		PayoutDestination: req.PayoutDestination,
		ClientIP:          c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "注册信息无效", nil)
		case errors.Is(err, service.ErrCodeGenerationExhausted):
			respondError(c, response.CodeConflict, "推广码生成失败，请重试", nil)
		default:
			respondError(c, response.CodeInternal, "推广伙伴创建失败", err)
		}
		return
	}
	response.Success(c, affiliate)
}

// GetAdminAffiliates 获取推广伙伴列表 (Admin)
func (h *Handler) GetAdminAffiliates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	items, total, err := h.AffiliateService.List(repository.AffiliateListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Code:     strings.TrimSpace(c.Query("code")),
		Keyword:  strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "推广伙伴列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// GetAdminAffiliate 获取推广伙伴详情 (Admin)
func (h *Handler) GetAdminAffiliate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	affiliate, err := h.AffiliateService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "推广伙伴不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "推广伙伴获取失败", err)
		return
	}
	stats, err := h.AffiliateService.Stats(id)
	if err != nil {
		respondError(c, response.CodeInternal, "推广伙伴统计获取失败", err)
		return
	}
	response.Success(c, service.AffiliateItem{Affiliate: *affiliate, Stats: stats})
}

// UpdateAffiliateStatusRequest 更新伙伴状态请求
type UpdateAffiliateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAffiliateStatus 更新推广伙伴状态
func (h *Handler) UpdateAffiliateStatus(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateAffiliateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	affiliate, err := h.AffiliateService.UpdateStatus(actor, id, req.Status, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "推广伙伴不存在", nil)
		case errors.Is(err, service.ErrAffiliateStatusInvalid):
			respondError(c, response.CodeBadRequest, "伙伴状态无效", nil)
		default:
			respondError(c, response.CodeInternal, "伙伴状态更新失败", err)
		}
		return
	}
	response.Success(c, affiliate)
}

// AffiliateLinkRequest 推广链接请求
type AffiliateLinkRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateAffiliateLink 为伙伴创建推广链接
func (h *Handler) CreateAffiliateLink(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AffiliateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	link, err := h.AffiliateService.CreateLink(id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "推广伙伴不存在", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "链接名称无效", nil)
		case errors.Is(err, service.ErrCodeGenerationExhausted):
			respondError(c, response.CodeConflict, "链接码生成失败，请重试", nil)
		default:
			respondError(c, response.CodeInternal, "推广链接创建失败", err)
		}
		return
	}
	response.Success(c, link)
}

// GetAffiliateLinks 获取伙伴推广链接列表
func (h *Handler) GetAffiliateLinks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	links, err := h.AffiliateService.ListLinks(id)
	if err != nil {
		respondError(c, response.CodeInternal, "推广链接获取失败", err)
		return
	}
	response.Success(c, links)
}

// RenameAffiliateLinkRequest 重命名推广链接请求
type RenameAffiliateLinkRequest struct {
	AffiliateID uint   `json:"affiliate_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
}

// RenameAffiliateLink 重命名推广链接
func (h *Handler) RenameAffiliateLink(c *gin.Context) {
	linkID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RenameAffiliateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	link, err := h.AffiliateService.RenameLink(req.AffiliateID, linkID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "推广链接不存在", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "链接名称无效", nil)
		default:
			respondError(c, response.CodeInternal, "推广链接更新失败", err)
		}
		return
	}
	response.Success(c, link)
}

// GetAdminVisits 获取访问记录列表 (Admin)
func (h *Handler) GetAdminVisits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.VisitListFilter{
		Page:       page,
		PageSize:   pageSize,
		Country:    strings.TrimSpace(c.Query("country")),
		DeviceType: strings.TrimSpace(c.Query("device_type")),
	}
	if affiliateID, err := strconv.ParseUint(c.Query("affiliate_id"), 10, 64); err == nil {
		filter.AffiliateID = uint(affiliateID)
	}
	if converted := strings.TrimSpace(c.Query("converted")); converted != "" {
		value := converted == "true" || converted == "1"
		filter.Converted = &value
	}

	visits, total, err := h.VisitService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "访问记录获取失败", err)
		return
	}
	response.SuccessWithPage(c, visits, response.BuildPagination(page, pageSize, total))
}
