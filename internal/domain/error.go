package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Payment lifecycle errors
	ErrOrderMismatch   = errors.New("payment does not belong to campaign")
	ErrPaymentFailed   = errors.New("payment has already failed")
	ErrAlreadyRefunded = errors.New("payment already refunded")
	ErrRefundUnknown   = errors.New("refund outcome unknown, requires manual reconciliation")
	ErrUserBlocked     = errors.New("user is blocked")

	// Auth errors
	ErrUnauthorized = errors.New("missing or invalid credentials")
	ErrForbidden    = errors.New("caller is not an admin")

	// Gateway errors
	ErrGateway = errors.New("payment gateway error")
)
