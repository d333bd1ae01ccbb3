package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataContracts(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{CodeValidation, http.StatusBadRequest, "validation failed", false, true},
		{CodeUnauthorized, http.StatusUnauthorized, "authentication required", false, false},
		{CodeForbidden, http.StatusForbidden, "access denied", false, false},
		{CodeNotFound, http.StatusNotFound, "resource not found", false, false},
		{CodeConflict, http.StatusConflict, "conflict detected", false, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, "state transition disallowed", false, true},
		{CodeIdempotency, http.StatusConflict, "idempotency key reused", false, true},
		{CodeRateLimit, http.StatusTooManyRequests, "rate limit exceeded", false, false},
		{CodeInternal, http.StatusInternalServerError, "internal server error", true, false},
		{CodeDependency, http.StatusServiceUnavailable, "dependency unavailable", true, true},
		{CodeInsufficientStock, http.StatusConflict, "insufficient stock", false, true},
		{CodeOrderNumberExhausted, http.StatusInternalServerError, "could not allocate order number", true, false},
		{CodePaymentGateway, http.StatusBadGateway, "payment gateway unavailable", true, true},
		{CodePaymentVerification, http.StatusBadRequest, "payment verification failed", false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			if meta.HTTPStatus != tt.status {
				t.Errorf("status: want %d got %d", tt.status, meta.HTTPStatus)
			}
			if meta.PublicMessage != tt.publicMsg {
				t.Errorf("public message: want %q got %q", tt.publicMsg, meta.PublicMessage)
			}
			if meta.Retryable != tt.retryable {
				t.Errorf("retryable: want %v got %v", tt.retryable, meta.Retryable)
			}
			if meta.DetailsAllowed != tt.detailsOK {
				t.Errorf("details allowed: want %v got %v", tt.detailsOK, meta.DetailsAllowed)
			}
		})
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must map to the internal contract, got %d", meta.HTTPStatus)
	}
	if meta.DetailsAllowed {
		t.Fatal("unknown codes must never allow details")
	}
}

func TestNewAndWithDetails(t *testing.T) {
	err := New(CodeValidation, "missing foo")
	if err.Code() != CodeValidation || err.Message() != "missing foo" {
		t.Fatalf("unexpected error %v", err)
	}
	if err.Details() != nil {
		t.Fatal("details should start nil")
	}

	err.WithDetails(map[string]any{"field": "foo"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["field"] != "foo" {
		t.Fatalf("details not preserved: %#v", err.Details())
	}
}

func TestWrapKeepsCauseInChain(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, fmt.Errorf("layer: %w", cause), "ctx")

	if !stdErrors.Is(wrapped, cause) {
		t.Fatal("Wrap dropped the cause from the chain")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	// Wrapping nil is just New.
	if err := Wrap(CodeConflict, nil, "ctx"); err.Unwrap() != nil {
		t.Fatal("Wrap(nil) should carry no cause")
	}
}

func TestAsFindsTypedErrorAnywhere(t *testing.T) {
	typed := New(CodeForbidden, "no entry")
	buried := fmt.Errorf("outer: %w", typed)

	if got := As(buried); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed on wrapped error: %v", got)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("As should return nil for untyped errors")
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should return nil")
	}
}

func TestNilErrorAccessorsAreSafe(t *testing.T) {
	var err *Error
	if err.Code() != CodeInternal {
		t.Fatalf("nil error should report the internal code, got %s", err.Code())
	}
	if err.Message() != "" || err.Error() != "" {
		t.Fatal("nil error should render empty strings")
	}
	if err.WithDetails("x") != nil || err.Details() != nil {
		t.Fatal("nil error details must stay nil")
	}
}
