package errors

import (
	"fmt"
	"time"
)

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates an authentication failure on the HTTP surface
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrAuthenticationFailed indicates there is no current principal at all
type ErrAuthenticationFailed struct{}

func (e *ErrAuthenticationFailed) Error() string {
	return "no authenticated user"
}

// ErrInvalidStateTransition indicates an illegal status change
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrTokenMissing indicates the seller has no stored bearer token
type ErrTokenMissing struct {
	SellerID string
}

func (e *ErrTokenMissing) Error() string {
	return fmt.Sprintf("no kaspi token stored for seller %s", e.SellerID)
}

// ErrTokenInvalid indicates the stored token failed the format check or was
// rejected by the marketplace
type ErrTokenInvalid struct {
	SellerID string
}

func (e *ErrTokenInvalid) Error() string {
	return fmt.Sprintf("kaspi token invalid for seller %s", e.SellerID)
}

// ErrNetwork indicates a transport-level failure, including timeouts
type ErrNetwork struct {
	Err error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrServer indicates a non-200 marketplace response
type ErrServer struct {
	StatusCode int
}

func (e *ErrServer) Error() string {
	return fmt.Sprintf("kaspi API error: status %d", e.StatusCode)
}

// ErrDecode indicates an unparseable marketplace response body
type ErrDecode struct {
	Err error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("failed to decode kaspi response: %v", e.Err)
}

func (e *ErrDecode) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the marketplace returned 429
type ErrRateLimited struct {
	RetryAfter time.Duration
}

func (e *ErrRateLimited) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// ErrStockInsufficient indicates an order entry cannot be fulfilled
type ErrStockInsufficient struct {
	SKU       string
	Requested int
	Available int
}

func (e *ErrStockInsufficient) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

// ErrCodeExpired indicates the SMS code lifetime has elapsed
type ErrCodeExpired struct {
	ExpiredAt time.Time
}

func (e *ErrCodeExpired) Error() string {
	return fmt.Sprintf("sms code expired at %s", e.ExpiredAt.Format(time.RFC3339))
}

// ErrCodeInvalid indicates a failed verification attempt
type ErrCodeInvalid struct {
	AttemptsRemaining int
}

func (e *ErrCodeInvalid) Error() string {
	return fmt.Sprintf("sms code invalid, %d attempts remaining", e.AttemptsRemaining)
}

// ErrAttemptsExhausted indicates all verification attempts were used
type ErrAttemptsExhausted struct {
	MaxAttempts int
}

func (e *ErrAttemptsExhausted) Error() string {
	return fmt.Sprintf("all %d confirmation attempts used, request a new code", e.MaxAttempts)
}

// ErrCooldownActive indicates a code was requested too soon after the last one
type ErrCooldownActive struct {
	Remaining time.Duration
}

func (e *ErrCooldownActive) Error() string {
	return fmt.Sprintf("sms code already requested, wait %s", e.Remaining.Round(time.Second))
}
