package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"time-capsule/internal/domain"
	"time-capsule/internal/repository"
)

// GormCapsuleRepository 是 CapsuleRepository 接口的 GORM 实现
type GormCapsuleRepository struct {
	db *gorm.DB
}

// NewGormCapsuleRepository 创建 GormCapsuleRepository 实例
func NewGormCapsuleRepository(db *gorm.DB) *GormCapsuleRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCapsuleRepository")
	}
	return &GormCapsuleRepository{db: db}
}

// FindByID 实现根据胶囊 ID 查找胶囊
func (r *GormCapsuleRepository) FindByID(ctx context.Context, id uint) (*domain.Capsule, error) {
	var capsule domain.Capsule
	err := r.db.WithContext(ctx).First(&capsule, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCapsuleNotFound
		}
		return nil, fmt.Errorf("gorm: find capsule by id %d: %w", id, err)
	}
	return &capsule, nil
}

// FindByUnlockCode 实现根据解锁码查找胶囊
func (r *GormCapsuleRepository) FindByUnlockCode(ctx context.Context, code string) (*domain.Capsule, error) {
	var capsule domain.Capsule
	err := r.db.WithContext(ctx).Where("unlock_code = ?", code).First(&capsule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCapsuleNotFound
		}
		// 日志中不输出完整解锁码
		return nil, fmt.Errorf("gorm: find capsule by unlock code: %w", err)
	}
	return &capsule, nil
}

// FindByOwner 实现查询某个用户的全部胶囊
func (r *GormCapsuleRepository) FindByOwner(ctx context.Context, ownerID uint) ([]domain.Capsule, error) {
	var capsules []domain.Capsule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC").
		Find(&capsules).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find capsules by owner %d: %w", ownerID, err)
	}
	return capsules, nil
}

// FindByStatusNot 实现查询存储状态不等于 status 的全部胶囊
// Find 对空结果不返回 ErrRecordNotFound，直接得到空 slice
func (r *GormCapsuleRepository) FindByStatusNot(ctx context.Context, status domain.CapsuleStatus) ([]domain.Capsule, error) {
	var capsules []domain.Capsule
	err := r.db.WithContext(ctx).Where("status <> ?", status).Find(&capsules).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find capsules by status not '%s': %w", status, err)
	}
	return capsules, nil
}

// Save 实现保存胶囊信息（创建或更新）
func (r *GormCapsuleRepository) Save(ctx context.Context, capsule *domain.Capsule) error {
	result := r.db.WithContext(ctx).Save(capsule)
	if err := result.Error; err != nil {
		// MySQL 1062: Duplicate entry (解锁码唯一约束冲突)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save capsule (id: %d): %w", capsule.ID, err)
	}
	return nil
}

// UpdateStatus 实现只更新状态列
// 单行 UPDATE，最后写入者胜出；清扫任务与用户请求并发时由下一轮清扫纠正。
func (r *GormCapsuleRepository) UpdateStatus(ctx context.Context, id uint, status domain.CapsuleStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Capsule{}).
		Where("id = ?", id).
		Update("status", status)
	if err := result.Error; err != nil {
		return fmt.Errorf("gorm: update capsule %d status to '%s': %w", id, status, err)
	}
	// MySQL 默认报告 changed rows 而非 matched rows，
	// 值未变化或行已被删除都会是 RowsAffected == 0，这里不区分。
	return nil
}

// Delete 实现删除胶囊
func (r *GormCapsuleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Capsule{}, id)
	if err := result.Error; err != nil {
		return fmt.Errorf("gorm: delete capsule %d: %w", id, err)
	}
	if result.RowsAffected == 0 {
		return repository.ErrCapsuleNotFound
	}
	return nil
}

// IsUnlockCodeExists 实现检查解锁码是否存在
func (r *GormCapsuleRepository) IsUnlockCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	// 使用 Count() 优化查询，只查询数量
	err := r.db.WithContext(ctx).Model(&domain.Capsule{}).Where("unlock_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count capsules by unlock code: %w", err)
	}
	return count > 0, nil
}
