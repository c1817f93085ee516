package fault

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"classified", New(NotFound, "no such invite"), NotFound},
		{"wrapped cause", Wrap(PermissionDenied, "not a club admin", errors.New("boom")), PermissionDenied},
		{"classified inside fmt chain", fmt.Errorf("outer: %w", New(DeadlineExceeded, "invite expired")), DeadlineExceeded},
		{"unclassified", errors.New("plain failure"), Unknown},
		{"stdlib sentinel", sql.ErrNoRows, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := sql.ErrNoRows
	err := Wrap(NotFound, "identity not found", cause)

	if !errors.Is(err, sql.ErrNoRows) {
		t.Error("expected wrapped cause reachable via errors.Is")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatal("expected errors.As to find *Error")
	}
	if fe.Code != NotFound {
		t.Errorf("code = %q, want %q", fe.Code, NotFound)
	}
}

func TestError_Message(t *testing.T) {
	plain := New(InvalidArgument, "email is required")
	if plain.Error() != "invalid-argument: email is required" {
		t.Errorf("unexpected message: %q", plain.Error())
	}

	wrapped := Wrap(Unknown, "claims write failed", errors.New("disk full"))
	want := "unknown: claims write failed: disk full"
	if wrapped.Error() != want {
		t.Errorf("message = %q, want %q", wrapped.Error(), want)
	}
}

func TestNewf(t *testing.T) {
	err := Newf(FailedPrecondition, "invite is %s", "revoked")
	if err.Message != "invite is revoked" {
		t.Errorf("unexpected message: %q", err.Message)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{Unauthenticated, http.StatusUnauthorized},
		{PermissionDenied, http.StatusForbidden},
		{InvalidArgument, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{FailedPrecondition, http.StatusPreconditionFailed},
		{DeadlineExceeded, http.StatusGone},
		{Unknown, http.StatusInternalServerError},
		{Code("something-new"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
