package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"time-capsule/internal/service"
	"time-capsule/internal/tasks"
)

// CapsuleSweepHandler 处理周期性的胶囊状态清扫任务
type CapsuleSweepHandler struct {
	sweeper *service.SweeperService
}

// NewCapsuleSweepHandler 创建 Handler 实例
func NewCapsuleSweepHandler(sweeper *service.SweeperService) *CapsuleSweepHandler {
	if sweeper == nil {
		panic("SweeperService cannot be nil for CapsuleSweepHandler")
	}
	return &CapsuleSweepHandler{sweeper: sweeper}
}

// ProcessTask 实现 asynq.Handler 接口。
// 单个胶囊的失败由 SweeperService 内部记录并吞掉，
// 只有整批加载失败才让 asynq 按退避策略重试本任务。
func (h *CapsuleSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	var payload tasks.CapsuleSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal sweep task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if !payload.EnqueuedAt.IsZero() {
		logCtx = logCtx.WithField("queue_delay", time.Since(payload.EnqueuedAt).String())
	}

	logCtx.Info("Processing capsule sweep task...")
	stats, err := h.sweeper.Sweep(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Capsule sweep failed")
		return fmt.Errorf("capsule sweep: %w", err)
	}

	logCtx.WithFields(logrus.Fields{
		"scanned": stats.Scanned,
		"updated": stats.Updated,
		"failed":  stats.Failed,
	}).Info("Capsule sweep task processed successfully")
	return nil
}
