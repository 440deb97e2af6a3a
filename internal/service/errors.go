package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 在实体缺失或属于其他用户时返回，两种情况刻意不作区分
	ErrNotFound = errors.New("resource not found")
	// ErrConflict 在唯一性冲突或删除被引用实体时返回
	ErrConflict = errors.New("conflict")
	// ErrValidation 在输入不合法时返回（空必填项、未来日期、非法枚举等）
	ErrValidation = errors.New("validation failed")
	// ErrUpstreamUnavailable 在外部动作库访问失败或超时时返回
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// invalidf 构造带说明的校验错误
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// conflictf 构造带说明的冲突错误
func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
