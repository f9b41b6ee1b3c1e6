package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrForbidden           = errors.New("admin privileges required")
	ErrAccountInactive     = errors.New("account is deactivated")
	ErrAccountUnverified   = errors.New("email not verified")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUsernameExists      = errors.New("username already taken")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrTransactionTerminal = errors.New("transaction already in terminal state")
	ErrDuplicateReference  = errors.New("duplicate transaction reference")
	ErrAssetInactive       = errors.New("instrument is not available for trading")
	ErrInvalidCode         = errors.New("verification code is invalid")
)
