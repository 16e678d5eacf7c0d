package worker

import (
	"context"
	"errors"
	"time"

	"github.com/reflink-next/internal/config"
	"github.com/reflink-next/internal/logger"
	"github.com/reflink-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	leaderboardRefreshInterval = 15 * time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.LeaderboardService != nil {
		go s.runLeaderboardRefreshLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runLeaderboardRefreshLoop 定期刷新排行榜快照，刷新节奏由配置的缓存周期决定。
func (s *Service) runLeaderboardRefreshLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.LeaderboardService == nil {
		return
	}
	runOnce := func() {
		if _, err := s.consumer.LeaderboardService.Recompute(false); err != nil {
			logger.Warnw("worker_leaderboard_refresh_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(leaderboardRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
