package domain

import "time"

// CapsuleStatus 表示胶囊的生命周期状态。
type CapsuleStatus string

const (
	StatusLocked   CapsuleStatus = "locked"
	StatusUnlocked CapsuleStatus = "unlocked"
	StatusExpired  CapsuleStatus = "expired"
)

// RetentionWindow 是胶囊解锁后内容保持可读的时长，超过后进入 expired 状态。
const RetentionWindow = 30 * 24 * time.Hour

// UnlockCodeLength 是解锁码的固定长度。
const UnlockCodeLength = 12

// rank 返回状态在生命周期中的顺序，用于保证状态只前进不回退。
// 未知值按 locked 处理。
func (s CapsuleStatus) rank() int {
	switch s {
	case StatusUnlocked:
		return 1
	case StatusExpired:
		return 2
	default:
		return 0
	}
}

// Capsule 表示一条定时解锁的留言。
type Capsule struct {
	ID         uint          `gorm:"primaryKey"`
	UserID     uint          `gorm:"index;not null"` // 所有者用户 ID (外键关联到 User.ID)
	Message    string        `gorm:"type:text;not null"`
	UnlockCode string        `gorm:"uniqueIndex:idx_unlock_code;size:12;not null"` // 12 位随机解锁码，非所有者的次级访问凭证
	UnlockAt   time.Time     `gorm:"index;not null"`
	Status     CapsuleStatus `gorm:"type:varchar(16);index;not null;default:locked"`
	CreatedAt  time.Time     `gorm:"autoCreateTime"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime"`
}

// ExpiresAt 返回胶囊进入 expired 状态的时刻 (解锁时刻 + 保留窗口)。
func (c *Capsule) ExpiresAt() time.Time {
	return c.UnlockAt.Add(RetentionWindow)
}

// StatusAt 根据时间戳计算胶囊在 now 时刻的状态。
// 纯函数，无副作用，读取路径和后台清扫任务都依赖它。
// 边界时刻归属后一个状态：正好等于 UnlockAt 时为 unlocked，
// 正好等于 UnlockAt+RetentionWindow 时为 expired。
// 已存储的状态不会回退：一旦记录为 expired 则永远是 expired。
func (c *Capsule) StatusAt(now time.Time) CapsuleStatus {
	computed := StatusLocked
	if !now.Before(c.ExpiresAt()) {
		computed = StatusExpired
	} else if !now.Before(c.UnlockAt) {
		computed = StatusUnlocked
	}
	if c.Status.rank() > computed.rank() {
		return c.Status
	}
	return computed
}

// Mutable 报告胶囊在 now 时刻是否仍允许所有者修改或删除。
// 解锁时刻一到 (含边界) 即不可变。
func (c *Capsule) Mutable(now time.Time) bool {
	return c.StatusAt(now) == StatusLocked
}
