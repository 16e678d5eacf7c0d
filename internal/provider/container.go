package provider

import (
	"github.com/reflink-next/internal/authz"
	"github.com/reflink-next/internal/cache"
	"github.com/reflink-next/internal/config"
	"github.com/reflink-next/internal/logger"
	"github.com/reflink-next/internal/models"
	"github.com/reflink-next/internal/queue"
	"github.com/reflink-next/internal/repository"
	"github.com/reflink-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	AffiliateRepo     repository.AffiliateRepository
	AffiliateLinkRepo repository.AffiliateLinkRepository
	VisitRepo         repository.VisitRepository
	ReferralRepo      repository.ReferralRepository
	CommissionRepo    repository.CommissionRepository
	PayoutRepo        repository.PayoutRepository
	AuditLogRepo      repository.AuditLogRepository
	SettingRepo       repository.SettingRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	EmailService       *service.EmailService
	SettingService     *service.SettingService
	AuditService       *service.AuditService
	AffiliateService   *service.AffiliateService
	VisitService       *service.VisitService
	CommissionService  *service.CommissionService
	AttributionService *service.AttributionService
	PayoutService      *service.PayoutService
	LeaderboardService *service.LeaderboardService
	ReconcileService   *service.ReconcileService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.AffiliateLinkRepo = repository.NewAffiliateLinkRepository(db)
	c.VisitRepo = repository.NewVisitRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.AuditService = service.NewAuditService(c.AuditLogRepo)
	c.AffiliateService = service.NewAffiliateService(c.Config, c.AffiliateRepo, c.AffiliateLinkRepo, c.SettingService, c.AuditService)
	c.VisitService = service.NewVisitService(c.VisitRepo, c.AffiliateService)
	c.CommissionService = service.NewCommissionService(c.CommissionRepo, c.AffiliateService)
	c.AttributionService = service.NewAttributionService(c.ReferralRepo, c.VisitRepo, c.AffiliateService, c.CommissionService, c.AuditService)
	c.PayoutService = service.NewPayoutService(c.PayoutRepo, c.CommissionRepo, c.AffiliateService, c.AuditService, c.payoutAuthorizer(), c.QueueClient)
	c.LeaderboardService = service.NewLeaderboardService(c.AffiliateService, c.SettingService, c.AuditService)
	c.ReconcileService = service.NewReconcileService(c.AffiliateRepo, c.AuditService)
}

// payoutAuthorizer 组合超管直通与 Casbin 能力判定
func (c *Container) payoutAuthorizer() service.Authorizer {
	return &superAwareAuthorizer{
		adminRepo: c.AdminRepo,
		authz:     c.AuthzService,
	}
}

type superAwareAuthorizer struct {
	adminRepo repository.AdminRepository
	authz     *authz.Service
}

func (a *superAwareAuthorizer) Authorize(actorID uint, object, action string) (bool, error) {
	if a == nil || a.adminRepo == nil || a.authz == nil {
		return false, nil
	}
	admin, err := a.adminRepo.GetByID(actorID)
	if err != nil {
		return false, err
	}
	if admin != nil && admin.IsSuper {
		return true, nil
	}
	return a.authz.Authorize(actorID, object, action)
}
