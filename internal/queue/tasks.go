package queue

import (
	"encoding/json"

	"github.com/reflink-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPayoutStatusEmail 提现状态邮件通知任务
	TaskPayoutStatusEmail = constants.TaskPayoutStatusEmail
	// TaskLeaderboardRebuild 排行榜刷新任务
	TaskLeaderboardRebuild = constants.TaskLeaderboardRebuild
	// TaskTotalsReconcile 缓存汇总对账任务
	TaskTotalsReconcile = constants.TaskTotalsReconcile
)

// PayoutStatusEmailPayload 提现状态邮件任务载荷
type PayoutStatusEmailPayload struct {
	PayoutID uint   `json:"payout_id"`
	Status   string `json:"status"`
}

// LeaderboardRebuildPayload 排行榜刷新任务载荷
type LeaderboardRebuildPayload struct {
	Force bool `json:"force"`
}

// TotalsReconcilePayload 对账任务载荷
type TotalsReconcilePayload struct{}

// NewPayoutStatusEmailTask 创建提现状态邮件任务
func NewPayoutStatusEmailTask(payload PayoutStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayoutStatusEmail, body), nil
}

// NewLeaderboardRebuildTask 创建排行榜刷新任务
func NewLeaderboardRebuildTask(payload LeaderboardRebuildPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeaderboardRebuild, body), nil
}

// NewTotalsReconcileTask 创建对账任务
func NewTotalsReconcileTask(payload TotalsReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTotalsReconcile, body), nil
}
