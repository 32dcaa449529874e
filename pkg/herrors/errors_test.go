package herrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "no guidance",
			err:  New(ErrInvalidInput, "bad url"),
			want: "INVALID_INPUT: bad url",
		},
		{
			name: "with guidance",
			err:  New(ErrRateLimit, "too many requests").WithGuidance("back off"),
			want: "RATE_LIMIT: too many requests. back off",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithSuggestionsAccumulates(t *testing.T) {
	err := New(ErrConfiguration, "missing url").
		WithSuggestions("pass -url").
		WithSuggestions("or pass -brand-config and -brand")

	if len(err.Suggestions) != 2 {
		t.Fatalf("len(Suggestions) = %d, want 2", len(err.Suggestions))
	}
	if err.Suggestions[0] != "pass -url" || err.Suggestions[1] != "or pass -brand-config and -brand" {
		t.Errorf("Suggestions = %v", err.Suggestions)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrNetworkError, "fetch failed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantCode   Code
	}{
		{"too many requests", http.StatusTooManyRequests, ErrRateLimit},
		{"request timeout", http.StatusRequestTimeout, ErrServiceTimeout},
		{"gateway timeout", http.StatusGatewayTimeout, ErrServiceTimeout},
		{"bad request", http.StatusBadRequest, ErrInvalidInput},
		{"internal server error", http.StatusInternalServerError, ErrInternalError},
		{"service unavailable", http.StatusServiceUnavailable, ErrServiceUnavailable},
		{"unmapped status", http.StatusTeapot, ErrServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ServiceError("fetcher", tt.statusCode, fmt.Errorf("boom"))
			if err.Code != tt.wantCode {
				t.Errorf("ServiceError(%d).Code = %v, want %v", tt.statusCode, err.Code, tt.wantCode)
			}
			if err.Guidance == "" {
				t.Error("expected non-empty guidance")
			}
		})
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct error", New(ErrConfiguration, "missing brand"), ErrConfiguration},
		{"wrapped error", fmt.Errorf("context: %w", New(ErrParseError, "bad json")), ErrParseError},
		{"plain error", errors.New("unstructured"), ErrInternalError},
		{"nil error", nil, ErrInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeFor(tt.err); got != tt.want {
				t.Errorf("CodeFor() = %v, want %v", got, tt.want)
			}
		})
	}
}
