// Package tasks 定义 asynq 任务类型和 payload 构造函数。
package tasks

import (
	"encoding/json"
	"time"
)

// 任务类型常量
const (
	// TypeCapsuleSweep 是周期性的胶囊状态清扫任务类型
	TypeCapsuleSweep = "capsule:sweep"
)

// CapsuleSweepPayload 定义清扫任务的数据结构。
// 清扫本身不需要参数，只带上入队时间便于在日志里观察调度延迟。
type CapsuleSweepPayload struct {
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewCapsuleSweepTask 创建清扫任务的 payload 字节
func NewCapsuleSweepTask() ([]byte, error) {
	payload := CapsuleSweepPayload{
		EnqueuedAt: time.Now().UTC(),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return payloadBytes, nil
}
