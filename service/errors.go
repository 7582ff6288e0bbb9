package service

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError 输入不合法；在任何落库之前返回
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// AuthorizationError 调用者无权执行该操作，不应重试
type AuthorizationError struct {
	UserID uint64
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not allowed to %s", e.UserID, e.Action)
}

// ResolutionError 圈人结果为空
type ResolutionError struct {
	Mode string
	Msg  string
}

func (e *ResolutionError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("no recipients resolved for mode %s", e.Mode)
	}
	return fmt.Sprintf("recipient resolution (%s): %s", e.Mode, e.Msg)
}

// LegFailure 某一个投递通道的失败
type LegFailure struct {
	Channel string
	Err     error
}

// DispatchError 至少一个通道失败。审计行保留，Legs 列出每个失败的通道。
type DispatchError struct {
	MessageID uint64
	Legs      []LegFailure
}

func (e *DispatchError) Error() string {
	parts := make([]string, 0, len(e.Legs))
	for _, l := range e.Legs {
		parts = append(parts, fmt.Sprintf("%s: %v", l.Channel, l.Err))
	}
	return fmt.Sprintf("dispatch of message %d failed: %s", e.MessageID, strings.Join(parts, "; "))
}

// Unwrap 让 errors.Is 能匹配到具体通道的错误（如 ErrNoEligibleRecipients）
func (e *DispatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Legs))
	for _, l := range e.Legs {
		out = append(out, l.Err)
	}
	return out
}

// FailedChannel 某通道是否失败
func (e *DispatchError) FailedChannel(channel string) bool {
	for _, l := range e.Legs {
		if l.Channel == channel {
			return true
		}
	}
	return false
}

var (
	// ErrNoEligibleRecipients 邮件通道：没有一个收件人有邮箱且开启了通知
	ErrNoEligibleRecipients = errors.New("no recipients eligible for email")
	// ErrEntryNotFound 站内信/公告不存在
	ErrEntryNotFound = errors.New("entry not found")
	// ErrMailerNotConfigured 开了邮件通道但没有配置传输层
	ErrMailerNotConfigured = errors.New("mail transport not configured")
)

// IsValidation / IsAuthorization / IsResolution 方便 handler 层做错误码映射
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuthorization(err error) bool {
	var a *AuthorizationError
	return errors.As(err, &a)
}

func IsResolution(err error) bool {
	var r *ResolutionError
	return errors.As(err, &r)
}
