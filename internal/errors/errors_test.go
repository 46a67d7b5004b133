package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Product not found")
		assert.Equal(t, "NOT_FOUND: Product not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "quantity", "reason": "must be positive"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"InvalidToken", func() *AppError { return InvalidToken("test") }, ErrCodeInvalidToken},
		{"NotFound", func() *AppError { return NotFound("Product") }, ErrCodeNotFound},
		{"AlreadyExists", func() *AppError { return AlreadyExists("Order") }, ErrCodeAlreadyExists},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("phone", "empty") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("phone") }, ErrCodeMissingRequired},
		{"InvalidQuantity", func() *AppError { return InvalidQuantity(0) }, ErrCodeInvalidQuantity},
		{"EmptyCart", func() *AppError { return EmptyCart() }, ErrCodeEmptyCart},
		{"BusinessNotFound", func() *AppError { return BusinessNotFound("b1") }, ErrCodeBusinessNotFound},
		{"ProductNotFound", func() *AppError { return ProductNotFound("p1") }, ErrCodeProductNotFound},
		{"OrderNotFound", func() *AppError { return OrderNotFound("o1") }, ErrCodeOrderNotFound},
		{"InvalidOrderState", func() *AppError { return InvalidOrderState("paid", "pending") }, ErrCodeInvalidOrderState},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestDatabase(t *testing.T) {
	t.Run("wraps database error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Database(cause)
		assert.Equal(t, ErrCodeDatabase, err.Code)
		assert.Equal(t, cause, err.Unwrap())
	})
}

func TestDeliveryFailed(t *testing.T) {
	t.Run("wraps delivery error", func(t *testing.T) {
		cause := errors.New("twilio 500")
		err := DeliveryFailed(cause)
		assert.Equal(t, ErrCodeDeliveryFailed, err.Code)
		assert.Equal(t, cause, err.Unwrap())
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("extracts wrapped AppError", func(t *testing.T) {
		inner := InvalidQuantity(-1)
		appErr, ok := AsAppError(inner)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeInvalidQuantity, appErr.Code)
	})

	t.Run("plain error is not an AppError", func(t *testing.T) {
		_, ok := AsAppError(errors.New("plain"))
		assert.False(t, ok)
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}
