package errs

import (
	"errors"
	"fmt"
)

// Kind 错误类别
// 业务类错误（参数、冲突、不存在）不允许重试，只有 Transient 可以重试
type Kind string

const (
	Validation Kind = "validation" // 参数非法，未发生任何状态变更
	Conflict   Kind = "conflict"   // 状态不变量被破坏（重复支付、非法状态流转）
	NotFound   Kind = "not_found"  // 支付/订单不存在
	Transient  Kind = "transient"  // 存储或消息通道暂时不可用，可重试
	Internal   Kind = "internal"
)

// Error 带类别的错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 底层错误（用于日志）
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: Conflict, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

// Transientf 包装底层基础设施错误
func Transientf(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: Transient, Msg: fmt.Sprintf(format, args...), Err: err}
}

// As 提取 *Error
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 返回错误类别，无法识别的错误归为 Internal
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}

// IsTransient 判断是否可重试
func IsTransient(err error) bool {
	return KindOf(err) == Transient
}
