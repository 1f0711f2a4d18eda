package errors

import (
	"fmt"
	"runtime/debug"

	"pptKeywordDetector/internal/logger"
)

// RecoveryHandler panic 恢复处理器
type RecoveryHandler func(recovered any, stack []byte) error

// DefaultRecoveryHandler 默认恢复处理器，调用栈写入 debug 日志
func DefaultRecoveryHandler(recovered any, stack []byte) error {
	logger.Error("recovered from panic", "panic", fmt.Sprint(recovered))
	logger.Debug("panic stack", "stack", string(stack))
	return Newf(ErrInternal, "panic: %v", recovered).WithLevel(LevelFatal)
}

// SafeExecute 安全执行函数（带 panic 恢复）
func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = DefaultRecoveryHandler(r, debug.Stack())
		}
	}()

	return fn()
}

// SafeExecuteWithHandler 安全执行函数（自定义恢复处理器）
func SafeExecuteWithHandler(fn func() error, handler RecoveryHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			if handler != nil {
				err = handler(r, stack)
			} else {
				err = DefaultRecoveryHandler(r, stack)
			}
		}
	}()

	return fn()
}

// SafeExecuteWithResult 安全执行带返回值的函数
func SafeExecuteWithResult[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = DefaultRecoveryHandler(r, debug.Stack())
		}
	}()

	return fn()
}

// Describe 返回适合写入报告的一行错误描述
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if msg == "" {
		return fmt.Sprintf("%T", err)
	}
	return msg
}
