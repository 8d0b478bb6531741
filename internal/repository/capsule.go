package repository

import (
	"context"

	"time-capsule/internal/domain"
)

// CapsuleRepository 定义了胶囊数据的存储和检索操作。
type CapsuleRepository interface {
	// FindByID 根据胶囊 ID 查找胶囊。
	// 如果胶囊不存在，应返回 repository.ErrCapsuleNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Capsule, error)

	// FindByUnlockCode 根据解锁码查找胶囊。
	// 如果胶囊不存在，应返回 repository.ErrCapsuleNotFound。
	FindByUnlockCode(ctx context.Context, code string) (*domain.Capsule, error)

	// FindByOwner 查询某个用户拥有的全部胶囊，按创建时间排序。
	FindByOwner(ctx context.Context, ownerID uint) ([]domain.Capsule, error)

	// FindByStatusNot 查询存储状态不等于 status 的全部胶囊。
	// 清扫任务用它获取所有非终态的胶囊。
	FindByStatusNot(ctx context.Context, status domain.CapsuleStatus) ([]domain.Capsule, error)

	// Save 保存胶囊信息。
	// 如果胶囊已存在 (基于 ID)，则更新；否则创建新胶囊。
	// 违反唯一约束 (解锁码冲突) 时返回 repository.ErrDuplicateEntry。
	Save(ctx context.Context, capsule *domain.Capsule) error

	// UpdateStatus 只更新指定胶囊的状态列。
	// 单行 UPDATE，依赖存储引擎自身的原子性，无乐观锁。
	UpdateStatus(ctx context.Context, id uint, status domain.CapsuleStatus) error

	// Delete 删除指定胶囊。
	// 如果胶囊不存在，应返回 repository.ErrCapsuleNotFound。
	Delete(ctx context.Context, id uint) error

	// IsUnlockCodeExists 检查解锁码是否已存在。
	IsUnlockCodeExists(ctx context.Context, code string) (bool, error)
}
