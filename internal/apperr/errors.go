// Package apperr defines the error taxonomy shared by services and the
// HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

// Kind groups errors by how a caller should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindConfiguration
	KindValidation
	KindNotFound
	KindPolicy
	KindExternalProvider
)

// Error is a sentinel carrying a stable machine-readable code.
type Error struct {
	kind    Kind
	code    string
	message string
}

func (e *Error) Error() string { return e.message }

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Code() string { return e.code }

func newError(kind Kind, code, message string) *Error {
	return &Error{kind: kind, code: code, message: message}
}

var (
	ErrPlanNotConfigured = newError(KindConfiguration, "plan_not_configured", "price not configured for plan")

	ErrInvalidRequest   = newError(KindValidation, "invalid_request", "invalid request")
	ErrInvalidSignature = newError(KindValidation, "invalid_signature", "invalid webhook signature")
	ErrInvalidDay       = newError(KindValidation, "invalid_day", "day index out of range for plan")
	ErrInvalidContent   = newError(KindValidation, "invalid_content", "message content rejected")

	ErrOrderNotFound = newError(KindNotFound, "order_not_found", "order not found")
	ErrGiftNotFound  = newError(KindNotFound, "gift_not_found", "gift not found")

	ErrPaymentRequired = newError(KindPolicy, "payment_required", "order not paid")
	ErrQuotaExceeded   = newError(KindPolicy, "quota_exceeded", "no tokens left")

	ErrPaymentProvider = newError(KindExternalProvider, "payment_provider", "payment provider error")
	ErrLLMProvider     = newError(KindExternalProvider, "llm_provider", "language model provider error")
)

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsPolicy reports whether err is an unpaid-order or exhausted-quota rejection.
func IsPolicy(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.kind == KindPolicy
}

// HTTPStatus maps err to the status code returned by the API.
//
// Token guard rejections answer 400 like every other client error; clients
// tell them apart by code. Only gift lookups answer 404.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if appErr == ErrGiftNotFound {
		return http.StatusNotFound
	}
	switch appErr.kind {
	case KindConfiguration, KindValidation, KindNotFound, KindPolicy, KindExternalProvider:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable code for err, "internal" when err is not
// part of the taxonomy.
func Code(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.code
	}
	return "internal"
}
