package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 在记录不存在或不属于当前用户时返回，两种情况对外不可区分
	ErrNotFound = errors.New("record not found")
	// ErrTimerRunning 在已有进行中的计时时再次开始计时返回
	ErrTimerRunning = errors.New("a running time entry already exists")
	// ErrNoRunningTimer 在没有进行中的计时却请求停止时返回
	ErrNoRunningTimer = errors.New("no running time entry")
	// ErrBatchTooLarge 在批量更新条目数超过上限时返回
	ErrBatchTooLarge = fmt.Errorf("batch size exceeds limit of %d", MaxBatchSize)
)

// ValidationError 表示业务规则或输入校验失败，Field 为空表示整体性错误。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
