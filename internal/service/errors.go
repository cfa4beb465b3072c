package service

import (
	"errors"
	"strings"
)

// Categories. Every domain error unwraps to exactly one of these; the HTTP
// layer maps categories to status codes.
var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrGateway     = errors.New("gateway")
	ErrIntegrity   = errors.New("integrity")
	ErrUnavailable = errors.New("unavailable")
)

type DomainError struct {
	Kind error
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }
func (e *DomainError) Unwrap() error { return e.Kind }

func newErr(kind error, msg string) *DomainError {
	return &DomainError{Kind: kind, Msg: msg}
}

var (
	ErrEmptyCart            = newErr(ErrValidation, "cart is empty")
	ErrNoOrderItems         = newErr(ErrValidation, "order has no items")
	ErrPriceCeilingExceeded = newErr(ErrValidation, "total price exceeds the allowed maximum")
	ErrInvalidQuantity      = newErr(ErrValidation, "quantity must be between 1 and 9999")
	ErrInvalidProduct       = newErr(ErrValidation, "exactly one of curriculum_id or course_id is required")
	ErrOrderNotPending      = newErr(ErrValidation, "order is not pending")
	ErrAmountExceedsCeiling = newErr(ErrValidation, "payment amount exceeds the allowed maximum")
	ErrOrderNotCompleted    = newErr(ErrValidation, "order is not completed")
	ErrPaymentNotCompleted  = newErr(ErrValidation, "payment is not completed")
	ErrRefundWindowExpired  = newErr(ErrValidation, "refund window has expired")
	ErrMissingApprovalToken = newErr(ErrValidation, "pg_token is required")

	ErrDuplicateItem     = newErr(ErrConflict, "product is already in the cart")
	ErrIllegalTransition = newErr(ErrConflict, "illegal payment status transition")

	ErrProductNotFound  = newErr(ErrNotFound, "product not found")
	ErrCartItemNotFound = newErr(ErrNotFound, "cart item not found")
	ErrOrderNotFound    = newErr(ErrNotFound, "order not found")
	ErrPaymentNotFound  = newErr(ErrNotFound, "payment not found")
	ErrReceiptNotFound  = newErr(ErrNotFound, "receipt not found")
	ErrAddressNotFound  = newErr(ErrNotFound, "billing address not found")

	ErrReceiptForbidden = newErr(ErrForbidden, "receipt belongs to another user")

	ErrPaymentRequestFailed  = newErr(ErrGateway, "payment request failed")
	ErrPaymentApprovalFailed = newErr(ErrGateway, "payment approval failed")
	ErrRefundFailed          = newErr(ErrGateway, "refund failed")

	ErrMissingPaidTimestamp = newErr(ErrIntegrity, "completed payment has no paid_at")

	ErrSearchUnavailable = newErr(ErrUnavailable, "receipt search is not configured")
)

type FieldError struct {
	Field   string
	Message string
}

// FieldErrors is a validation failure listing every offending field.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrValidation }

func (fe *FieldErrors) add(field, msg string) {
	*fe = append(*fe, FieldError{Field: field, Message: msg})
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
