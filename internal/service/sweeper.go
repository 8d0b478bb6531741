package service

import (
	"context"
	"fmt"
	"time"

	"time-capsule/internal/domain"
	"time-capsule/internal/repository"

	"github.com/sirupsen/logrus"
)

// SweepStats 汇总一轮清扫的结果。
type SweepStats struct {
	Scanned int // 本轮检查的非终态胶囊数量
	Updated int // 状态发生迁移并成功写入的数量
	Failed  int // 写入失败的数量（已记录日志，下一轮重试）
}

// SweeperService 周期性地把胶囊的存储状态和按时间计算出的状态对齐。
// 只对非 expired 的胶囊求值；没有状态变化时不产生任何写入（幂等）。
type SweeperService struct {
	capsuleRepo repository.CapsuleRepository
	now         func() time.Time
}

// NewSweeperService 创建 SweeperService 实例。
// clock 为 nil 时使用 time.Now().UTC()。
func NewSweeperService(capsuleRepo repository.CapsuleRepository, clock func() time.Time) *SweeperService {
	if capsuleRepo == nil {
		panic("CapsuleRepository cannot be nil for SweeperService")
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &SweeperService{
		capsuleRepo: capsuleRepo,
		now:         clock,
	}
}

// Sweep 执行一轮状态清扫。
// 单个胶囊的写入失败只记录日志并计入 Failed，不会中断整轮清扫；
// 失败的条目由下一次计划运行重试，没有立即重试。
// 只有整批加载失败时才返回错误（本轮什么都做不了）。
func (s *SweeperService) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	logCtx := logrus.WithField("task", "capsule_sweep")

	capsules, err := s.capsuleRepo.FindByStatusNot(ctx, domain.StatusExpired)
	if err != nil {
		logCtx.WithError(err).Error("Sweep aborted: failed to load non-terminal capsules")
		return stats, fmt.Errorf("sweep: load capsules: %w", err)
	}

	now := s.now()
	stats.Scanned = len(capsules)

	for i := range capsules {
		capsule := &capsules[i]
		newStatus := capsule.StatusAt(now)
		if newStatus == capsule.Status {
			continue // 无变化，不写
		}

		if err := s.capsuleRepo.UpdateStatus(ctx, capsule.ID, newStatus); err != nil {
			stats.Failed++
			logCtx.WithError(err).WithFields(logrus.Fields{
				"capsule_id": capsule.ID,
				"from":       capsule.Status,
				"to":         newStatus,
			}).Error("Failed to persist capsule status transition")
			continue
		}

		stats.Updated++
		logCtx.WithFields(logrus.Fields{
			"capsule_id": capsule.ID,
			"from":       capsule.Status,
			"to":         newStatus,
		}).Info("Capsule status transitioned")
	}

	logCtx.WithFields(logrus.Fields{
		"scanned": stats.Scanned,
		"updated": stats.Updated,
		"failed":  stats.Failed,
	}).Info("Sweep completed")
	return stats, nil
}
