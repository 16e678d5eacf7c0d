package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/reflink-next/internal/logger"
	"github.com/reflink-next/internal/provider"
	"github.com/reflink-next/internal/queue"
	"github.com/reflink-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPayoutStatusEmail, c.handlePayoutStatusEmail)
	mux.HandleFunc(queue.TaskLeaderboardRebuild, c.handleLeaderboardRebuild)
	mux.HandleFunc(queue.TaskTotalsReconcile, c.handleTotalsReconcile)
}

func (c *Consumer) handlePayoutStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payout_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PayoutStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payout_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.PayoutID == 0 {
		logger.Debugw("worker_payout_status_email_skip_invalid_payload", "payout_id", payload.PayoutID)
		return nil
	}
	req, err := c.PayoutService.GetByID(payload.PayoutID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Debugw("worker_payout_status_email_skip_not_found", "payout_id", payload.PayoutID)
			return nil
		}
		logger.Warnw("worker_payout_status_email_fetch_failed", "payout_id", payload.PayoutID, "error", err)
		return err
	}
	receiverEmail := strings.TrimSpace(req.Affiliate.Email)
	affiliateCode := req.Affiliate.AffiliateCode
	if receiverEmail == "" {
		logger.Debugw("worker_payout_status_email_skip_empty_receiver", "payout_id", req.ID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_payout_status_email_skip_email_service_nil", "payout_id", req.ID)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = req.Status
	}
	input := service.PayoutStatusEmailInput{
		AffiliateCode: affiliateCode,
		Status:        status,
		Amount:        req.Amount,
		FailureReason: req.FailureReason,
	}
	if err := c.EmailService.SendPayoutStatusEmail(receiverEmail, input); err != nil {
		if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
			logger.Debugw("worker_payout_status_email_skip_disabled", "payout_id", req.ID)
			return nil
		}
		logger.Warnw("worker_payout_status_email_send_failed",
			"payout_id", req.ID,
			"receiver_email", receiverEmail,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleLeaderboardRebuild(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_leaderboard_rebuild_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LeaderboardRebuildPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_leaderboard_rebuild_unmarshal_failed", "error", err)
		return err
	}
	if c.LeaderboardService == nil {
		logger.Warnw("worker_leaderboard_rebuild_skip_service_nil")
		return nil
	}
	count, err := c.LeaderboardService.Recompute(payload.Force)
	if err != nil {
		logger.Warnw("worker_leaderboard_rebuild_failed", "force", payload.Force, "error", err)
		return err
	}
	logger.Debugw("worker_leaderboard_rebuild_done", "force", payload.Force, "entries", count)
	return nil
}

func (c *Consumer) handleTotalsReconcile(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_totals_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.ReconcileService == nil {
		logger.Warnw("worker_totals_reconcile_skip_service_nil")
		return nil
	}
	report, err := c.ReconcileService.ReconcileTotals()
	if err != nil {
		logger.Warnw("worker_totals_reconcile_failed", "error", err)
		return err
	}
	logger.Infow("worker_totals_reconcile_done", "checked", report.Checked, "drifted", report.Drifted)
	return nil
}
