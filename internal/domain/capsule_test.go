package domain_test

import (
	"testing"
	"time"

	"time-capsule/internal/domain"

	"github.com/stretchr/testify/assert"
)

// 测试用的固定解锁时间，避免依赖真实时钟
var unlockAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newCapsule(status domain.CapsuleStatus) *domain.Capsule {
	return &domain.Capsule{
		ID:        1,
		UserID:    7,
		Message:   "hello future",
		UnlockAt:  unlockAt,
		Status:    status,
		CreatedAt: unlockAt.Add(-24 * time.Hour),
	}
}

func TestCapsule_StatusAt_BeforeUnlock(t *testing.T) {
	c := newCapsule(domain.StatusLocked)

	assert.Equal(t, domain.StatusLocked, c.StatusAt(unlockAt.Add(-time.Hour)), "解锁前应为 locked")
	assert.Equal(t, domain.StatusLocked, c.StatusAt(unlockAt.Add(-time.Nanosecond)), "解锁前一纳秒仍应为 locked")
}

func TestCapsule_StatusAt_Boundaries(t *testing.T) {
	c := newCapsule(domain.StatusLocked)

	// 边界时刻归属后一个状态（下界闭区间）
	assert.Equal(t, domain.StatusUnlocked, c.StatusAt(unlockAt), "正好在解锁时刻应为 unlocked")
	assert.Equal(t, domain.StatusExpired, c.StatusAt(unlockAt.Add(domain.RetentionWindow)), "正好在保留窗口结束时应为 expired")
}

func TestCapsule_StatusAt_WithinRetentionWindow(t *testing.T) {
	c := newCapsule(domain.StatusLocked)

	assert.Equal(t, domain.StatusUnlocked, c.StatusAt(unlockAt.Add(time.Hour)))
	assert.Equal(t, domain.StatusUnlocked, c.StatusAt(unlockAt.Add(domain.RetentionWindow-time.Nanosecond)), "窗口结束前一纳秒仍应为 unlocked")
	assert.Equal(t, domain.StatusExpired, c.StatusAt(unlockAt.Add(31*24*time.Hour)))
}

func TestCapsule_StatusAt_Monotonic(t *testing.T) {
	// 状态只能沿 locked -> unlocked -> expired 前进，时间推进中不得回退
	c := newCapsule(domain.StatusLocked)

	times := []time.Time{
		unlockAt.Add(-time.Hour),
		unlockAt,
		unlockAt.Add(time.Hour),
		unlockAt.Add(domain.RetentionWindow - time.Second),
		unlockAt.Add(domain.RetentionWindow),
		unlockAt.Add(2 * domain.RetentionWindow),
	}

	ranks := map[domain.CapsuleStatus]int{
		domain.StatusLocked:   0,
		domain.StatusUnlocked: 1,
		domain.StatusExpired:  2,
	}
	prev := -1
	for _, now := range times {
		status := c.StatusAt(now)
		assert.GreaterOrEqual(t, ranks[status], prev, "状态在 %v 时回退到了 %s", now, status)
		prev = ranks[status]
	}
}

func TestCapsule_StatusAt_NeverRevertsStoredStatus(t *testing.T) {
	// 已标记为 expired 的胶囊即使按时间计算仍在窗口内，也不回退
	c := newCapsule(domain.StatusExpired)

	assert.Equal(t, domain.StatusExpired, c.StatusAt(unlockAt.Add(-time.Hour)))
	assert.Equal(t, domain.StatusExpired, c.StatusAt(unlockAt.Add(time.Hour)))

	// unlocked 同理不回退到 locked
	c2 := newCapsule(domain.StatusUnlocked)
	assert.Equal(t, domain.StatusUnlocked, c2.StatusAt(unlockAt.Add(-time.Hour)))
}

func TestCapsule_Mutable(t *testing.T) {
	c := newCapsule(domain.StatusLocked)

	assert.True(t, c.Mutable(unlockAt.Add(-time.Minute)), "解锁前应可修改")
	assert.False(t, c.Mutable(unlockAt), "解锁时刻一到 (含边界) 即不可修改")
	assert.False(t, c.Mutable(unlockAt.Add(domain.RetentionWindow+time.Hour)), "过期后不可修改")
}

func TestCapsule_ExpiresAt(t *testing.T) {
	c := newCapsule(domain.StatusLocked)
	assert.Equal(t, unlockAt.Add(30*24*time.Hour), c.ExpiresAt())
}
