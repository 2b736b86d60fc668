package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeStateViolation ErrorType = "STATE_VIOLATION"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized   ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden      ErrorType = "FORBIDDEN"
	ErrorTypeConflict       ErrorType = "CONFLICT"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidPeriod    ErrorCode = "INVALID_PERIOD"
	ErrCodeInvalidEnum      ErrorCode = "INVALID_ENUM_VALUE"

	ErrCodeSheetLocked       ErrorCode = "SHEET_LOCKED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeEmptySheet        ErrorCode = "EMPTY_SHEET"

	ErrCodeSheetNotFound   ErrorCode = "SHEET_NOT_FOUND"
	ErrCodeItemNotFound    ErrorCode = "ITEM_NOT_FOUND"
	ErrCodeAdvanceNotFound ErrorCode = "ADVANCE_NOT_FOUND"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"

	ErrCodeDuplicateSheet      ErrorCode = "DUPLICATE_SHEET"
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"

	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeFinanceRequired    ErrorCode = "FINANCE_ROLE_REQUIRED"
	ErrCodeOwnerRequired      ErrorCode = "OWNER_REQUIRED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeExportUnavailable ErrorCode = "EXPORT_UNAVAILABLE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so shared sentinels compare equal to fresh instances.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

// NewSheetLockedError reports an item or header edit, or a submit, attempted outside draft/rejected.
func NewSheetLockedError(status string) *AppError {
	return &AppError{
		Type:       ErrorTypeStateViolation,
		Code:       ErrCodeSheetLocked,
		Message:    fmt.Sprintf("expense sheet is locked in status %q", status),
		Details:    map[string]string{"status": status},
		StatusCode: http.StatusBadRequest,
	}
}

// NewInvalidTransitionError names both the current state and the attempted trigger.
func NewInvalidTransitionError(current, attempted string) *AppError {
	return &AppError{
		Type:       ErrorTypeStateViolation,
		Code:       ErrCodeInvalidTransition,
		Message:    fmt.Sprintf("cannot %s from status %q", attempted, current),
		Details:    map[string]string{"current_state": current, "attempted": attempted},
		StatusCode: http.StatusBadRequest,
	}
}

func NewEmptySheetError() *AppError {
	return &AppError{
		Type:       ErrorTypeStateViolation,
		Code:       ErrCodeEmptySheet,
		Message:    "expense sheet has no items to submit",
		StatusCode: http.StatusBadRequest,
	}
}

func NewExportUnavailableError(status string) *AppError {
	return &AppError{
		Type:       ErrorTypeStateViolation,
		Code:       ErrCodeExportUnavailable,
		Message:    fmt.Sprintf("expense sheet in status %q cannot be exported", status),
		Details:    map[string]string{"status": status},
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrSheetNotFound       = NewNotFoundError("expense sheet not found", ErrCodeSheetNotFound)
	ErrItemNotFound        = NewNotFoundError("expense item not found", ErrCodeItemNotFound)
	ErrAdvanceNotFound     = NewNotFoundError("advance request not found", ErrCodeAdvanceNotFound)
	ErrUserNotFound        = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrDuplicateSheet      = NewConflictError("an expense sheet already exists for this period", ErrCodeDuplicateSheet)
	ErrConcurrencyConflict = NewConflictError("record was modified concurrently, reload and try again", ErrCodeConcurrencyConflict)
	ErrEmptySheet          = NewEmptySheetError()
	ErrExportUnavailable   = NewExportUnavailableError("")

	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access to resource", ErrCodeUnauthorizedAccess)
	ErrFinanceRequired    = NewForbiddenError("finance role required", ErrCodeFinanceRequired)
	ErrOwnerRequired      = NewForbiddenError("only the owner can perform this action", ErrCodeOwnerRequired)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == code
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
