package group

import (
	"errors"
	"testing"
)

func TestNormalizeInviteCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "ABCD1234", want: "ABCD1234"},
		{in: "abcd-1234", want: "ABCD1234"},
		{in: " ab cd-12 34 ", want: "ABCD1234"},
	}
	for _, tc := range cases {
		got, err := NormalizeInviteCode(tc.in)
		if err != nil {
			t.Fatalf("normalize %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("normalize %q: got %q want %q", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "ABC123", "ABCD12345", "ABCD_123", "ÄBCD1234"} {
		if _, err := NormalizeInviteCode(bad); !errors.Is(err, ErrInvalidInviteCode) {
			t.Fatalf("expected ErrInvalidInviteCode for %q, got %v", bad, err)
		}
	}
}

func TestFormatInviteCode(t *testing.T) {
	t.Parallel()

	if got := FormatInviteCode("abcd1234"); got != "ABCD-1234" {
		t.Fatalf("unexpected display code: %q", got)
	}
	if got := FormatInviteCode("short"); got != "short" {
		t.Fatalf("invalid code should be returned unchanged, got %q", got)
	}
}

func TestNormalizeLeague(t *testing.T) {
	t.Parallel()

	if got, ok := NormalizeLeague("pl"); !ok || got != "Premier League" {
		t.Fatalf("expected Premier League, got %q ok=%v", got, ok)
	}
	if got, ok := NormalizeLeague("la liga"); !ok || got != "La Liga" {
		t.Fatalf("expected La Liga, got %q ok=%v", got, ok)
	}
	if _, ok := NormalizeLeague("Serie A"); ok {
		t.Fatalf("expected unsupported league to be rejected")
	}
}
