package domain

import (
	stderrors "errors"
	"strings"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeIllegalTransition = "ILLEGAL_TRANSITION"
	ErrCodeMalformedEvent    = "MALFORMED_EVENT"
	ErrCodeStaleWrite        = "STALE_WRITE"
	ErrCodeTransportFailure  = "TRANSPORT_FAILURE"
)

var (
	ErrInvalidArgument = apperrors.New("invalid argument", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidArgument)
	ErrInvalidStatus = apperrors.New("invalid execution status", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidStatus)
	ErrNotFound = apperrors.New("execution task not found", apperrors.CategoryNotFound).
			WithTextCode(ErrCodeNotFound)
	ErrConflict = apperrors.New("execution task already exists", apperrors.CategoryConflict).
			WithTextCode(ErrCodeConflict)
	ErrIllegalTransition = apperrors.New("illegal status transition", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeIllegalTransition)
	ErrMalformedEvent = apperrors.New("malformed event", apperrors.CategoryValidation).
				WithTextCode(ErrCodeMalformedEvent)
	ErrStaleWrite = apperrors.New("execution task was modified concurrently", apperrors.CategoryConflict).
			WithTextCode(ErrCodeStaleWrite)
	ErrTransportFailure = apperrors.New("transport failure", apperrors.CategoryExternal).
				WithTextCode(ErrCodeTransportFailure)
)

// NewError clones base with a specific message, cause and metadata.
func NewError(base *apperrors.Error, message string, source error, metadata map[string]any) *apperrors.Error {
	if base == nil {
		base = ErrTransportFailure
	}
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if source != nil {
		err.Source = source
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// WrapTransport marks a store or queue I/O failure.
func WrapTransport(err error, message string, metadata map[string]any) error {
	if err == nil {
		return nil
	}
	if ErrorCode(err) != "" {
		return err
	}
	return NewError(ErrTransportFailure, message, err, metadata)
}

// ErrorCode returns the text code of a classified error, or "" for anything else.
func ErrorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// ErrorMessage returns the classified message when available.
func ErrorMessage(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsInvalidArgument(err error) bool   { return ErrorCode(err) == ErrCodeInvalidArgument }
func IsInvalidStatus(err error) bool     { return ErrorCode(err) == ErrCodeInvalidStatus }
func IsNotFound(err error) bool          { return ErrorCode(err) == ErrCodeNotFound }
func IsConflict(err error) bool          { return ErrorCode(err) == ErrCodeConflict }
func IsIllegalTransition(err error) bool { return ErrorCode(err) == ErrCodeIllegalTransition }
func IsMalformedEvent(err error) bool    { return ErrorCode(err) == ErrCodeMalformedEvent }
func IsStaleWrite(err error) bool        { return ErrorCode(err) == ErrCodeStaleWrite }
func IsTransportFailure(err error) bool  { return ErrorCode(err) == ErrCodeTransportFailure }
