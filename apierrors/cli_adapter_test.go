package apierrors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestCLIAdapter(verbose bool) (*CLIErrorAdapter, *bytes.Buffer, *int) {
	var stderr bytes.Buffer
	code := -1
	a := NewCLIErrorAdapter(verbose, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.stderr = &stderr
	a.exit = func(c int) { code = c }
	return a, &stderr, &code
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"unclassified error", errors.New("unknown error"), 1},
		{"missing argument", NewMissingRequiredArgument("shop is required"), 2},
		{"invalid hmac", NewInvalidHMAC("bad signature"), 5},
		{"private app", NewPrivateApp("not allowed"), 7},
		{"throttling", throttlingError(1), 8},
		{"safe compare", NewSafeCompare("lengths differ"), 10},
		{"session storage", NewSessionStorage("disk full"), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())
	throttled := throttlingError(2)

	if got := quiet.FormatError(nil); got != "" {
		t.Errorf("nil = %q", got)
	}
	if got := quiet.FormatError(errors.New("boom")); got != "Error: boom" {
		t.Errorf("unclassified = %q", got)
	}
	if got := quiet.FormatError(throttled); got != "Error: rate limited" {
		t.Errorf("quiet = %q", got)
	}

	want := "Error [http_response/http_throttling]: rate limited\n" +
		"  status: 429 Too Many Requests\n" +
		"  retry after: 2s\n" +
		"  retryable: yes"
	if got := verbose.FormatError(throttled); got != want {
		t.Errorf("verbose =\n%s\nwant\n%s", got, want)
	}

	withCause := NewHTTPRequest("request failed").WithCause(errors.New("dial tcp: timeout"))
	if got := verbose.FormatError(withCause); got != "Error [transport/http_request]: request failed: dial tcp: timeout" {
		t.Errorf("verbose cause = %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	adapter, stderr, code := newTestCLIAdapter(false)

	adapter.HandleError(NewInvalidSession("session expired"))
	if *code != 5 {
		t.Errorf("exit code = %d, want 5", *code)
	}
	if got := stderr.String(); got != "Error: session expired\n" {
		t.Errorf("stderr = %q", got)
	}

	adapter, stderr, code = newTestCLIAdapter(true)
	adapter.HandleError(nil)
	if *code != -1 || stderr.Len() != 0 {
		t.Error("nil error must not exit or print")
	}
	adapter.HandleError(errors.New("plain"))
	if *code != 1 || !strings.HasPrefix(stderr.String(), "Error: plain") {
		t.Errorf("code=%d stderr=%q", *code, stderr.String())
	}
}
