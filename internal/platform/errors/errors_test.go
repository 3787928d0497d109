package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeCompanionNotFound, "load companion", stderrors.New("no rows"))
	if !stderrors.Is(err, New(CodeCompanionNotFound, "other message")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, New(CodeStorage, "")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeStorage, "save companion", stderrors.New("disk full"))
	if got := err.Error(); got != "save companion: disk full" {
		t.Fatalf("message = %q", got)
	}
}

func TestHTTPStatusThroughWrappedChain(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(CodeInvalidRunDate, "bad date"))
	if got := HTTPStatus(err); got != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", got, http.StatusBadRequest)
	}
	if got := HTTPStatus(stderrors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
}
