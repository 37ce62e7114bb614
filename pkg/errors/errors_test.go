package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeTerminalState, http.StatusUnprocessableEntity},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "load order")
	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if !IsCode(err, CodeDependency) {
		t.Fatalf("expected dependency code")
	}
}

func TestAsThroughWrappedChain(t *testing.T) {
	inner := New(CodeTerminalState, "order already delivered")
	outer := fmt.Errorf("handling deliver: %w", inner)
	typed := As(outer)
	if typed == nil || typed.Code() != CodeTerminalState {
		t.Fatalf("expected typed error through chain, got %v", typed)
	}
}

func TestRetryableOnlyForTransientCodes(t *testing.T) {
	if MetadataFor(CodeStateConflict).Retryable {
		t.Fatalf("state conflict must not be retryable")
	}
	if !MetadataFor(CodeDependency).Retryable {
		t.Fatalf("dependency errors are retryable")
	}
}
