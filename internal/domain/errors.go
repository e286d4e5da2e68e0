package domain

import (
	"errors"
	"fmt"
)

// Error codes shared by the state manager, the remote client and the bridge.
const (
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInsufficientBalance  = "INSUFFICIENT_BALANCE"
	CodeDailyLimitReached    = "DAILY_LIMIT_REACHED"
	CodeTaskAlreadyCompleted = "TASK_ALREADY_COMPLETED"
	CodeRequirementNotMet    = "REQUIREMENT_NOT_MET"
	CodeInvalidReferralCode  = "INVALID_REFERRAL_CODE"
	CodeServerError          = "SERVER_ERROR"
	CodeStorageCorrupt       = "STORAGE_CORRUPT"
	CodeStorage              = "STORAGE_ERROR"
	CodeNotFound             = "NOT_FOUND"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// IsCode reports whether err is (or wraps) an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the AppError code carried by err, or "" for foreign errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func ErrUnauthenticated(msg string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: msg, Status: 401}
}

func ErrInvalidCredentials(msg string) *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: msg, Status: 401}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrInsufficientBalance(balance, requested int64) *AppError {
	return &AppError{
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("insufficient balance: have %d, need %d", balance, requested),
		Status:  400,
	}
}

func ErrDailyLimitReached(msg string) *AppError {
	return &AppError{Code: CodeDailyLimitReached, Message: msg, Status: 429}
}

func ErrTaskAlreadyCompleted(msg string) *AppError {
	return &AppError{Code: CodeTaskAlreadyCompleted, Message: msg, Status: 409}
}

func ErrRequirementNotMet(msg string) *AppError {
	return &AppError{Code: CodeRequirementNotMet, Message: msg, Status: 400}
}

func ErrInvalidReferralCode(msg string) *AppError {
	return &AppError{Code: CodeInvalidReferralCode, Message: msg, Status: 400}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

// ErrServer covers network failures, timeouts and 5xx responses.
func ErrServer(msg string, cause error) *AppError {
	return &AppError{Code: CodeServerError, Message: msg, Status: 502, Cause: cause}
}

// ErrStorageCorrupt is raised by the store on undecodable data and recovered by its callers.
func ErrStorageCorrupt(key string, cause error) *AppError {
	return &AppError{Code: CodeStorageCorrupt, Message: fmt.Sprintf("stored value %q is corrupt", key), Status: 500, Cause: cause}
}

// ErrStorage reports a failed write-through; the mutation that caused it was not applied.
func ErrStorage(msg string, cause error) *AppError {
	return &AppError{Code: CodeStorage, Message: msg, Status: 500, Cause: cause}
}
