package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestParseSteps(t *testing.T) {
	if got, err := parseSteps(nil); err != nil || got != 1 {
		t.Fatalf("expected default of one step, got %d (%v)", got, err)
	}
	if got, err := parseSteps([]string{" 3 "}); err != nil || got != 3 {
		t.Fatalf("expected 3 steps, got %d (%v)", got, err)
	}
	for _, bad := range []string{"0", "-2", "all"} {
		if _, err := parseSteps([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestArgVersion(t *testing.T) {
	if _, err := argVersion(nil); err == nil {
		t.Fatalf("expected error without version")
	}
	if _, err := argVersion([]string{"-1"}); err == nil {
		t.Fatalf("expected error for negative version")
	}
	got, err := argVersion([]string{"1771900000"})
	if err != nil || got != 1771900000 {
		t.Fatalf("unexpected version: %d (%v)", got, err)
	}
}

func TestIgnoreNoChange(t *testing.T) {
	if err := ignoreNoChange(migrate.ErrNoChange); err != nil {
		t.Fatalf("expected no-change to be ignored, got %v", err)
	}
	boom := errors.New("boom")
	if err := ignoreNoChange(boom); !errors.Is(err, boom) {
		t.Fatalf("expected error passthrough, got %v", err)
	}
}
