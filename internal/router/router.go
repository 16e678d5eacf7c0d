package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reflink-next/internal/authz"
	"github.com/reflink-next/internal/cache"
	"github.com/reflink-next/internal/config"
	adminhandlers "github.com/reflink-next/internal/http/handlers/admin"
	publichandlers "github.com/reflink-next/internal/http/handlers/public"
	"github.com/reflink-next/internal/http/response"
	"github.com/reflink-next/internal/logger"
	"github.com/reflink-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "rl"
	}
	redisClient := cache.Client()
	ingestRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:ingest", redisPrefix),
		WindowSeconds: cfg.Security.IngestRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.IngestRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.IngestRateLimit.BlockSeconds,
		Message:       "上报过于频繁，请 %d 秒后重试",
	}
	payoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payout", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（访问与转化上报、排行榜、提现申请）
		public := apiV1.Group("/public")
		{
			public.POST("/visits", RateLimitMiddleware(redisClient, ingestRule, KeyByIP), publicHandler.RecordVisit)
			public.POST("/conversions", RateLimitMiddleware(redisClient, ingestRule, KeyByIP), publicHandler.AttributeConversion)
			public.GET("/leaderboard", publicHandler.GetLeaderboard)
			public.POST("/payouts", RateLimitMiddleware(redisClient, payoutRule, KeyByIPAndJSONField("affiliate_code")), publicHandler.ApplyPayout)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/profile", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 推广伙伴管理
				authorized.POST("/affiliates", adminHandler.RegisterAffiliate)
				authorized.GET("/affiliates", adminHandler.GetAdminAffiliates)
				authorized.GET("/affiliates/:id", adminHandler.GetAdminAffiliate)
				authorized.PATCH("/affiliates/:id/status", adminHandler.UpdateAffiliateStatus)
				authorized.POST("/affiliates/:id/links", adminHandler.CreateAffiliateLink)
				authorized.GET("/affiliates/:id/links", adminHandler.GetAffiliateLinks)
				authorized.PUT("/affiliate-links/:id", adminHandler.RenameAffiliateLink)

				// 访问与推荐记录
				authorized.GET("/visits", adminHandler.GetAdminVisits)
				authorized.GET("/referrals", adminHandler.GetAdminReferrals)
				authorized.POST("/referrals/:id/review", adminHandler.ReviewReferral)

				// 佣金与提现
				authorized.GET("/commissions", adminHandler.GetAdminCommissions)
				authorized.POST("/commissions", adminHandler.CreateDirectCommission)
				authorized.GET("/payouts", adminHandler.GetAdminPayouts)
				authorized.GET("/payouts/:id", adminHandler.GetAdminPayout)
				authorized.PATCH("/payouts/:id/status", adminHandler.AdvancePayoutStatus)

				// 排行榜与对账
				authorized.POST("/leaderboard/rebuild", adminHandler.RebuildLeaderboard)
				authorized.POST("/reconcile", adminHandler.RunReconcile)

				// 审计日志
				authorized.GET("/audit-logs", adminHandler.GetAdminAuditLogs)

				// 设置管理
				authorized.GET("/settings/affiliate", adminHandler.GetAffiliateSettings)
				authorized.PUT("/settings/affiliate", adminHandler.UpdateAffiliateSettings)
				authorized.POST("/settings/smtp/test", adminHandler.SendTestEmail)

				// 权限管理
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzRolePolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzRolePolicy)
				authorized.GET("/authz/admins", adminHandler.ListAdmins)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
