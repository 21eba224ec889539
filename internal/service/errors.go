package service

import (
	"errors"
	"sort"
	"strings"

	"yihuitong/internal/domain"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrLoginFailed          = errors.New(domain.MsgLoginFailed)
	ErrUnauthenticated      = errors.New("not logged in")
	ErrSessionNotFound      = errors.New("session not found")
	ErrRoomNotFound         = errors.New(domain.MsgRoomNotFound)
	ErrMeetingNotFound      = errors.New("meeting record not found")
	ErrInvalidRole          = errors.New("invalid meeting role")
	ErrNotHost              = errors.New("only the host can perform this action")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrRoomNumberExhausted  = errors.New("no free room number available")
	ErrInternalServer       = errors.New("internal server error")
)

// ValidationError 携带字段级校验错误，errors.Is(err, ErrValidation) 为 true。
type ValidationError struct {
	Fields domain.FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: domain.FieldErrors{field: message}}
}
