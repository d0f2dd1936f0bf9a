package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
)

type quotaError struct{}

func (quotaError) Error() string      { return "quota exhausted" }
func (quotaError) ErrorLabel() string { return "Quota" }

func TestErrorLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "Error"},
		{"labeler", quotaError{}, "Quota"},
		{"wrapped labeler", fmt.Errorf("call: %w", quotaError{}), "Quota"},
		{"deadline", context.DeadlineExceeded, "Context deadline exceeded"},
		{"url deadline", &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, "Context deadline exceeded"},
		{"url", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("refused")}, "Request URL error"},
		{"canceled", fmt.Errorf("stop: %w", context.Canceled), "Context canceled"},
		{"wrapped plain", fmt.Errorf("outer: %w", errors.New("inner")), "Wrapped error"},
		{"joined", errors.Join(errors.New("a"), errors.New("b")), "Multiple errors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorLabel(tt.err); got != tt.want {
				t.Errorf("ErrorLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Unknown error"},
		{"*errors.errorString", "Error"},
		{"*net.OpError", "Op Error (net)"},
		{"*main.customFailure", "Custom Failure"},
		{"*github.com/acme/store.ErrNotFound", "Err Not Found (store)"},
		{"*proxy.HTTPError", "HTTP Error (proxy)"},
		{"syscall.Errno", "Errno (syscall)"},
		{"retryAfter2Errors", "Retry After 2 Errors"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := TypeLabel(tt.in); got != tt.want {
				t.Errorf("TypeLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
