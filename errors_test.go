package authcore

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindInternal, "internal"},
		{KindBadRequest, "bad_request"},
		{KindUnauthorized, "unauthorized"},
		{KindConflict, "conflict"},
		{KindNotFound, "not_found"},
		{KindTooManyRequests, "too_many_requests"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	inner := errors.New("boom")

	e := Unauthorized(MsgIncorrectCredentials, nil)
	if got, want := e.Error(), "unauthorized: "+MsgIncorrectCredentials; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	e = Internal("login failed", inner)
	if got, want := e.Error(), "internal: login failed: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", Internal("op failed", inner))

	if !errors.Is(wrapped, inner) {
		t.Error("errors.Is should find the inner error")
	}

	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As should find *Error")
	}
	if e.Kind != KindInternal {
		t.Errorf("Kind = %v, want %v", e.Kind, KindInternal)
	}
}

func TestError_PublicMessage(t *testing.T) {
	if got := BadRequest(MsgEmailRequired, nil).PublicMessage(); got != MsgEmailRequired {
		t.Errorf("PublicMessage() = %q, want %q", got, MsgEmailRequired)
	}
	if got := Internal("register failed", errors.New("dial tcp")).PublicMessage(); got != MsgInternalServerError {
		t.Errorf("PublicMessage() = %q, want %q", got, MsgInternalServerError)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound(MsgUserNotFound, nil)); got != KindNotFound {
		t.Errorf("KindOf() = %v, want %v", got, KindNotFound)
	}
	if got := KindOf(fmt.Errorf("ctx: %w", Conflict(MsgValidationError, nil))); got != KindConflict {
		t.Errorf("KindOf(wrapped) = %v, want %v", got, KindConflict)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindInternal)
	}
	if !IsKind(TooManyRequests(MsgTooManyLoginAttempts, nil), KindTooManyRequests) {
		t.Error("IsKind should match")
	}
	if IsKind(errors.New("plain"), KindBadRequest) {
		t.Error("IsKind should not match a plain error")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindTooManyRequests, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestEmailConflict(t *testing.T) {
	e := emailConflict(nil)

	if e.Kind != KindConflict || e.Message != MsgValidationError {
		t.Fatalf("got %v %q", e.Kind, e.Message)
	}
	if len(e.Fields) != 1 {
		t.Fatalf("Fields = %d, want 1", len(e.Fields))
	}
	f := e.Fields[0]
	if f.Field != "email" || f.Location != "body" || len(f.Messages) != 1 || f.Messages[0] != `"email" already exists` {
		t.Errorf("unexpected field error: %+v", f)
	}
}

func TestFieldConflict(t *testing.T) {
	e := fieldConflict("id", nil)

	if e.Kind != KindConflict || len(e.Fields) != 1 {
		t.Fatalf("got %v with %d fields", e.Kind, len(e.Fields))
	}
	if f := e.Fields[0]; f.Field != "id" || f.Messages[0] != `"id" already exists` {
		t.Errorf("unexpected field error: %+v", f)
	}
}
