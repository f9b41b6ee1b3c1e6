package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Admin privileges required"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientFunds   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrAccountInactive     = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_DEACTIVATED", "Account is deactivated"}
	ErrAccountUnverified   = &AppError{http.StatusUnprocessableEntity, "EMAIL_NOT_VERIFIED", "Email address is not verified"}
	ErrEmailExists         = &AppError{http.StatusConflict, "EMAIL_EXISTS", "Email already registered"}
	ErrUsernameExists      = &AppError{http.StatusConflict, "USERNAME_EXISTS", "Username already taken"}
	ErrInvalidTransition   = &AppError{http.StatusUnprocessableEntity, "INVALID_TRANSITION", "Status transition not allowed"}
	ErrTransactionTerminal = &AppError{http.StatusConflict, "TRANSACTION_TERMINAL", "Transaction is already in a terminal state"}
	ErrAssetInactive       = &AppError{http.StatusUnprocessableEntity, "INSTRUMENT_UNAVAILABLE", "Instrument is not available for trading"}
	ErrInvalidCode         = &AppError{http.StatusBadRequest, "INVALID_CODE", "Verification code is invalid"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
