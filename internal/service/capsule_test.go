package service_test

import (
	"context"
	"testing"
	"time"

	"time-capsule/internal/domain"
	"time-capsule/internal/repository"
	"time-capsule/internal/repository/mocks"
	"time-capsule/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 测试用固定时刻
var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fixedClock 返回始终指向 t 的时钟
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func lockedCapsule(ownerID uint) *domain.Capsule {
	return &domain.Capsule{
		ID:         1,
		UserID:     ownerID,
		Message:    "see you in the future",
		UnlockCode: "abcDEF123456",
		UnlockAt:   baseTime.Add(time.Hour),
		Status:     domain.StatusLocked,
		CreatedAt:  baseTime.Add(-time.Hour),
	}
}

// --- 测试 Create ---

func TestCapsuleService_Create_Success(t *testing.T) {
	// Arrange
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()
	unlockAt := baseTime.Add(time.Hour)

	mockRepo.On("IsUnlockCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockRepo.On("Save", ctx, mock.MatchedBy(func(c *domain.Capsule) bool {
		assert.Equal(t, uint(7), c.UserID)
		assert.Equal(t, "hello", c.Message)
		assert.Equal(t, domain.StatusLocked, c.Status, "新胶囊初始状态应为 locked")
		assert.Len(t, c.UnlockCode, domain.UnlockCodeLength, "解锁码应为 12 位")
		return true
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Capsule).ID = 1
		}).
		Return(nil).
		Once()

	// Act
	capsule, err := capsuleService.Create(ctx, 7, "hello", unlockAt)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, capsule)
	assert.Equal(t, uint(1), capsule.ID)
	assert.True(t, capsule.UnlockAt.Equal(unlockAt))
	mockRepo.AssertExpectations(t)
}

func TestCapsuleService_Create_UnlockTimeNotInFuture(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	// 过去的时间和正好等于当前时刻的时间都应被拒绝（必须严格在未来）
	for _, unlockAt := range []time.Time{baseTime.Add(-time.Hour), baseTime} {
		capsule, err := capsuleService.Create(ctx, 7, "hello", unlockAt)
		assert.ErrorIs(t, err, service.ErrUnlockTimeInPast, "unlock_at=%v 应被拒绝", unlockAt)
		assert.Nil(t, capsule)
	}
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCapsuleService_Create_UnlockCodeCollisionRetries(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	// 第一个生成的 code 冲突，第二次生成成功
	mockRepo.On("IsUnlockCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	mockRepo.On("IsUnlockCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockRepo.On("Save", ctx, mock.AnythingOfType("*domain.Capsule")).Return(nil).Once()

	capsule, err := capsuleService.Create(ctx, 7, "hello", baseTime.Add(time.Hour))

	assert.NoError(t, err, "解锁码冲突后应重试并成功")
	assert.NotNil(t, capsule)
	mockRepo.AssertExpectations(t)
}

// --- 测试 Get ---

func TestCapsuleService_Get_LockedRedactsMessage(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()

	capsule, err := capsuleService.Get(ctx, 7, 1)

	// locked 状态下即使是所有者也拿不到内容，只有元数据
	assert.NoError(t, err)
	require.NotNil(t, capsule)
	assert.Equal(t, domain.StatusLocked, capsule.Status)
	assert.Empty(t, capsule.Message, "locked 胶囊不应返回内容")
	assert.False(t, capsule.UnlockAt.IsZero(), "元数据 (解锁时间) 应可见")
	mockRepo.AssertExpectations(t)
}

func TestCapsuleService_Get_UnlockedReturnsContent(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	// 时钟拨到解锁之后
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime.Add(2*time.Hour)))
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()

	capsule, err := capsuleService.Get(ctx, 7, 1)

	assert.NoError(t, err)
	require.NotNil(t, capsule)
	assert.Equal(t, domain.StatusUnlocked, capsule.Status, "读取时应重新计算状态而不是信任存储列")
	assert.Equal(t, "see you in the future", capsule.Message)
	mockRepo.AssertExpectations(t)
}

func TestCapsuleService_Get_NotOwner(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()

	capsule, err := capsuleService.Get(ctx, 99, 1)

	assert.ErrorIs(t, err, service.ErrNotOwner)
	assert.Nil(t, capsule)
	mockRepo.AssertExpectations(t)
}

func TestCapsuleService_Get_NotFound(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(42)).Return(nil, repository.ErrCapsuleNotFound).Once()

	capsule, err := capsuleService.Get(ctx, 7, 42)

	assert.ErrorIs(t, err, service.ErrCapsuleNotFound)
	assert.Nil(t, capsule)
	mockRepo.AssertExpectations(t)
}

// --- 测试 List ---

func TestCapsuleService_List_RedactsLockedOnly(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	locked := *lockedCapsule(7)
	unlocked := *lockedCapsule(7)
	unlocked.ID = 2
	unlocked.UnlockAt = baseTime.Add(-time.Hour) // 已解锁

	mockRepo.On("FindByOwner", ctx, uint(7)).Return([]domain.Capsule{locked, unlocked}, nil).Once()

	capsules, err := capsuleService.List(ctx, 7)

	assert.NoError(t, err)
	require.Len(t, capsules, 2)
	assert.Empty(t, capsules[0].Message, "locked 条目内容应被抹除")
	assert.Equal(t, domain.StatusLocked, capsules[0].Status)
	assert.NotEmpty(t, capsules[1].Message, "unlocked 条目内容应保留")
	assert.Equal(t, domain.StatusUnlocked, capsules[1].Status)
	mockRepo.AssertExpectations(t)
}

// --- 测试 Update / Delete 的可变性门控 ---

func TestCapsuleService_Update_Success(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()
	newUnlockAt := baseTime.Add(48 * time.Hour)

	mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()
	mockRepo.On("Save", ctx, mock.MatchedBy(func(c *domain.Capsule) bool {
		return c.Message == "updated" && c.UnlockAt.Equal(newUnlockAt)
	})).Return(nil).Once()

	capsule, err := capsuleService.Update(ctx, 7, 1, "updated", newUnlockAt)

	assert.NoError(t, err)
	require.NotNil(t, capsule)
	assert.Equal(t, "updated", capsule.Message)
	mockRepo.AssertExpectations(t)
}

func TestCapsuleService_Update_AfterUnlockRejected(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	ctx := context.Background()

	// 解锁时刻及之后（含正好在边界）修改一律被拒绝
	for _, now := range []time.Time{
		baseTime.Add(time.Hour), // 正好在 unlock_at
		baseTime.Add(2 * time.Hour),
		baseTime.Add(time.Hour + domain.RetentionWindow),
	} {
		capsuleService := service.NewCapsuleService(mockRepo, fixedClock(now))
		mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()

		capsule, err := capsuleService.Update(ctx, 7, 1, "too late", time.Time{})

		assert.ErrorIs(t, err, service.ErrCapsuleImmutable, "now=%v 时修改应被拒绝", now)
		assert.Nil(t, capsule)
	}
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestCapsuleService_Update_NewUnlockTimeNotInFuture(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()

	capsule, err := capsuleService.Update(ctx, 7, 1, "", baseTime.Add(-time.Minute))

	assert.ErrorIs(t, err, service.ErrUnlockTimeInPast)
	assert.Nil(t, capsule)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCapsuleService_Delete_Success(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()
	mockRepo.On("Delete", ctx, uint(1)).Return(nil).Once()

	err := capsuleService.Delete(ctx, 7, 1)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCapsuleService_Delete_AfterUnlockRejected(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime.Add(2*time.Hour)))
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(1)).Return(lockedCapsule(7), nil).Once()

	err := capsuleService.Delete(ctx, 7, 1)

	assert.ErrorIs(t, err, service.ErrCapsuleImmutable)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

// --- 测试 AccessByUnlockCode ---

func TestCapsuleService_AccessByUnlockCode(t *testing.T) {
	ctx := context.Background()
	code := "abcDEF123456"

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"unlocked 窗口内返回内容", baseTime.Add(2 * time.Hour), nil},
		{"locked 时拒绝", baseTime, service.ErrCapsuleLocked},
		{"expired 后拒绝", baseTime.Add(time.Hour + domain.RetentionWindow), service.ErrCapsuleExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.CapsuleRepository)
			capsuleService := service.NewCapsuleService(mockRepo, fixedClock(tt.now))
			mockRepo.On("FindByUnlockCode", ctx, code).Return(lockedCapsule(7), nil).Once()

			capsule, err := capsuleService.AccessByUnlockCode(ctx, code)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, capsule)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, capsule)
				assert.Equal(t, domain.StatusUnlocked, capsule.Status)
				assert.NotEmpty(t, capsule.Message, "unlocked 窗口内非所有者应拿到内容")
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCapsuleService_AccessByUnlockCode_UnknownCode(t *testing.T) {
	mockRepo := new(mocks.CapsuleRepository)
	capsuleService := service.NewCapsuleService(mockRepo, fixedClock(baseTime))
	ctx := context.Background()

	mockRepo.On("FindByUnlockCode", ctx, "nosuchcode12").Return(nil, repository.ErrCapsuleNotFound).Once()

	capsule, err := capsuleService.AccessByUnlockCode(ctx, "nosuchcode12")

	assert.ErrorIs(t, err, service.ErrCapsuleNotFound)
	assert.Nil(t, capsule)
	mockRepo.AssertExpectations(t)
}

// --- 完整生命周期场景 ---

func TestCapsuleService_LifecycleScenario(t *testing.T) {
	// 场景：创建 unlock_at = now+1h 的胶囊；
	// 立即读取为 locked 无内容；1 小时后为 unlocked 有内容；
	// 31 天后为 expired（所有者仍可读取内容）。
	mockRepo := new(mocks.CapsuleRepository)
	now := baseTime
	clock := func() time.Time { return now } // 可拨动的时钟
	capsuleService := service.NewCapsuleService(mockRepo, clock)
	ctx := context.Background()

	stored := &domain.Capsule{
		ID:         1,
		UserID:     7,
		Message:    "open me later",
		UnlockCode: "abcDEF123456",
		UnlockAt:   baseTime.Add(time.Hour),
		Status:     domain.StatusLocked,
	}
	// Get 会抹除 locked 胶囊的内容，每次调用返回独立的副本
	mockRepo.On("FindByID", ctx, uint(1)).Return(func(context.Context, uint) *domain.Capsule {
		c := *stored
		return &c
	}, nil)

	// 1. 立即读取：locked，无内容
	capsule, err := capsuleService.Get(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLocked, capsule.Status)
	assert.Empty(t, capsule.Message)

	// 2. 拨快 1 小时：unlocked，有内容
	now = baseTime.Add(time.Hour)
	capsule, err = capsuleService.Get(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnlocked, capsule.Status)
	assert.Equal(t, "open me later", capsule.Message)

	// 3. 拨快 31 天：expired
	now = baseTime.Add(31 * 24 * time.Hour)
	capsule, err = capsuleService.Get(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, capsule.Status)
	assert.Equal(t, "open me later", capsule.Message, "expired 后所有者仍可读取内容")
}
