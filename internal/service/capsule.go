package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"time-capsule/internal/domain"
	"time-capsule/internal/repository"

	"github.com/sirupsen/logrus"
)

// CapsuleService 负责胶囊相关的业务逻辑：
// 创建、读取（含状态门控）、修改、删除以及解锁码访问。
type CapsuleService struct {
	capsuleRepo repository.CapsuleRepository
	now         func() time.Time // 可注入时钟，测试时可替换；生产传 nil 使用 UTC 当前时间
}

// NewCapsuleService 创建 CapsuleService 实例。
// clock 为 nil 时使用 time.Now().UTC()。
func NewCapsuleService(capsuleRepo repository.CapsuleRepository, clock func() time.Time) *CapsuleService {
	if capsuleRepo == nil {
		panic("CapsuleRepository cannot be nil for CapsuleService")
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &CapsuleService{
		capsuleRepo: capsuleRepo,
		now:         clock,
	}
}

// Create 创建一个新胶囊。
// unlockAt 必须严格晚于当前时间，否则返回 ErrUnlockTimeInPast。
func (s *CapsuleService) Create(ctx context.Context, ownerID uint, message string, unlockAt time.Time) (*domain.Capsule, error) {
	logCtx := logrus.WithField("user_id", ownerID)

	// 1. 验证输入
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}
	now := s.now()
	unlockAt = unlockAt.UTC()
	if !unlockAt.After(now) {
		logCtx.WithField("unlock_at", unlockAt).Warn("Create capsule rejected: unlock time not in the future")
		return nil, ErrUnlockTimeInPast
	}

	// 2. 生成唯一的解锁码
	unlockCode, err := s.generateUniqueUnlockCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique unlock code")
		return nil, ErrInternalServer
	}

	// 3. 创建并保存胶囊，初始状态为 locked
	capsule := &domain.Capsule{
		UserID:     ownerID,
		Message:    message,
		UnlockCode: unlockCode,
		UnlockAt:   unlockAt,
		Status:     domain.StatusLocked,
	}
	if err := s.capsuleRepo.Save(ctx, capsule); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 唯一性已检查过，理论上不应发生
			logCtx.WithError(err).Error("Failed to save new capsule due to duplicate entry (unlock code conflict?)")
			return nil, ErrInternalServer
		}
		logCtx.WithError(err).Error("Failed to save new capsule to database")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"capsule_id": capsule.ID, "unlock_at": capsule.UnlockAt}).Info("Capsule created successfully")
	return capsule, nil
}

// Get 获取所有者自己的某个胶囊。
// 状态在每次读取时重新计算，不单独信任存储列（清扫间隔内可能过期）。
// locked 状态下对任何调用者都不返回内容，只保留元数据。
func (s *CapsuleService) Get(ctx context.Context, ownerID, capsuleID uint) (*domain.Capsule, error) {
	capsule, err := s.findOwned(ctx, ownerID, capsuleID)
	if err != nil {
		return nil, err
	}

	s.applyReadGate(capsule)
	return capsule, nil
}

// List 列出某个用户的全部胶囊，locked 的条目内容同样被抹除。
func (s *CapsuleService) List(ctx context.Context, ownerID uint) ([]domain.Capsule, error) {
	logCtx := logrus.WithField("user_id", ownerID)

	capsules, err := s.capsuleRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list capsules")
		return nil, ErrInternalServer
	}

	for i := range capsules {
		s.applyReadGate(&capsules[i])
	}
	return capsules, nil
}

// Update 修改胶囊的留言内容和/或解锁时间。
// 仅所有者可操作，且仅在解锁时刻之前允许；之后返回 ErrCapsuleImmutable。
func (s *CapsuleService) Update(ctx context.Context, ownerID, capsuleID uint, message string, unlockAt time.Time) (*domain.Capsule, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": ownerID, "capsule_id": capsuleID})

	capsule, err := s.findOwned(ctx, ownerID, capsuleID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !capsule.Mutable(now) {
		logCtx.Warn("Update rejected: capsule already unlocked")
		return nil, ErrCapsuleImmutable
	}

	if message != "" {
		capsule.Message = message
	}
	if !unlockAt.IsZero() {
		unlockAt = unlockAt.UTC()
		// 新的解锁时间同样必须严格在未来
		if !unlockAt.After(now) {
			return nil, ErrUnlockTimeInPast
		}
		capsule.UnlockAt = unlockAt
	}

	if err := s.capsuleRepo.Save(ctx, capsule); err != nil {
		logCtx.WithError(err).Error("Failed to save updated capsule")
		return nil, ErrInternalServer
	}

	logCtx.Info("Capsule updated successfully")
	return capsule, nil
}

// Delete 删除胶囊。仅所有者可操作，且仅在解锁时刻之前允许。
func (s *CapsuleService) Delete(ctx context.Context, ownerID, capsuleID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": ownerID, "capsule_id": capsuleID})

	capsule, err := s.findOwned(ctx, ownerID, capsuleID)
	if err != nil {
		return err
	}

	if !capsule.Mutable(s.now()) {
		logCtx.Warn("Delete rejected: capsule already unlocked")
		return ErrCapsuleImmutable
	}

	if err := s.capsuleRepo.Delete(ctx, capsule.ID); err != nil {
		if errors.Is(err, repository.ErrCapsuleNotFound) {
			// 查找和删除之间被并发删除，视为已完成
			return nil
		}
		logCtx.WithError(err).Error("Failed to delete capsule")
		return ErrInternalServer
	}

	logCtx.Info("Capsule deleted successfully")
	return nil
}

// AccessByUnlockCode 通过解锁码访问胶囊，供非所有者使用，无需认证。
// 仅在 unlocked 窗口内返回内容：locked 返回 ErrCapsuleLocked，
// expired 返回 ErrCapsuleExpired，未知解锁码返回 ErrCapsuleNotFound。
func (s *CapsuleService) AccessByUnlockCode(ctx context.Context, code string) (*domain.Capsule, error) {
	capsule, err := s.capsuleRepo.FindByUnlockCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCapsuleNotFound) {
			logrus.Warn("Unlock code access failed: code not found")
			return nil, ErrCapsuleNotFound
		}
		logrus.WithError(err).Error("Unlock code access failed: repository error")
		return nil, ErrInternalServer
	}
	if capsule == nil { // 防御
		return nil, ErrCapsuleNotFound
	}

	logCtx := logrus.WithField("capsule_id", capsule.ID)
	switch status := capsule.StatusAt(s.now()); status {
	case domain.StatusLocked:
		logCtx.Warn("Unlock code access rejected: capsule still locked")
		return nil, ErrCapsuleLocked
	case domain.StatusExpired:
		logCtx.Warn("Unlock code access rejected: capsule expired")
		return nil, ErrCapsuleExpired
	default:
		capsule.Status = status
	}

	logCtx.Info("Capsule accessed via unlock code")
	return capsule, nil
}

// --- 私有辅助函数 ---

// findOwned 加载胶囊并检查所有权。
// 未找到返回 ErrCapsuleNotFound，非所有者返回 ErrNotOwner。
func (s *CapsuleService) findOwned(ctx context.Context, ownerID, capsuleID uint) (*domain.Capsule, error) {
	capsule, err := s.capsuleRepo.FindByID(ctx, capsuleID)
	if err != nil {
		if errors.Is(err, repository.ErrCapsuleNotFound) {
			return nil, ErrCapsuleNotFound
		}
		logrus.WithError(err).WithField("capsule_id", capsuleID).Error("Repository error loading capsule")
		return nil, ErrInternalServer
	}
	if capsule == nil { // 防御
		return nil, ErrCapsuleNotFound
	}
	if capsule.UserID != ownerID {
		logrus.WithFields(logrus.Fields{"capsule_id": capsuleID, "user_id": ownerID, "owner_id": capsule.UserID}).
			Warn("Ownership check failed")
		return nil, ErrNotOwner
	}
	return capsule, nil
}

// applyReadGate 重新计算状态并按读取门控抹除 locked 胶囊的内容。
func (s *CapsuleService) applyReadGate(capsule *domain.Capsule) {
	capsule.Status = capsule.StatusAt(s.now())
	if capsule.Status == domain.StatusLocked {
		capsule.Message = ""
	}
}

// generateUniqueUnlockCode 生成唯一的 12 位解锁码
func (s *CapsuleService) generateUniqueUnlockCode(ctx context.Context) (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const maxAttempts = 10

	b := make([]byte, domain.UnlockCodeLength)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for i := range b {
			b[i] = letters[int(b[i])%len(letters)]
		}
		code := string(b)

		// 检查解锁码是否已存在
		exists, err := s.capsuleRepo.IsUnlockCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("database error checking unlock code: %w", err)
		}
		if !exists {
			return code, nil
		}
		// code 已存在，重试
		logrus.Warnf("Generated unlock code already exists, retrying (attempt %d)...", attempt+1)
	}
	return "", fmt.Errorf("failed to generate a unique unlock code after %d attempts", maxAttempts)
}
