package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String()
	if !strings.Contains(got, "commit "+GitCommit) {
		t.Errorf("String() = %q, missing commit", got)
	}
	if !strings.Contains(got, "built "+BuildTime) {
		t.Errorf("String() = %q, missing build time", got)
	}
}

func TestStringPrefersInjectedVersion(t *testing.T) {
	prev := Version
	t.Cleanup(func() { Version = prev })

	Version = "v9.9.9"
	if got := String(); !strings.HasPrefix(got, "v9.9.9 ") {
		t.Errorf("String() = %q, want injected version first", got)
	}
}
