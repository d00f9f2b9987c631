package prediction

import (
	"testing"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
)

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]Status{
		"SUBMITTED":  StatusSubmitted,
		" editable ": StatusEditable,
		"locked":     StatusLocked,
		"PROCESSED":  StatusProcessed,
		"":           StatusSubmitted,
		"SOMETHING":  StatusSubmitted,
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q)=%s want %s", raw, got, want)
		}
	}
}

func TestPredictionActive(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusSubmitted, StatusLocked, StatusProcessed} {
		if !(Prediction{Status: status}).Active() {
			t.Fatalf("expected %s to be active", status)
		}
	}
	for _, status := range []Status{StatusEditable, ""} {
		if (Prediction{Status: status}).Active() {
			t.Fatalf("expected %q to be inactive", status)
		}
	}
}

func TestEffectiveStatus(t *testing.T) {
	t.Parallel()

	submitted := Prediction{Status: StatusSubmitted}
	if got := submitted.EffectiveStatus(fixture.WindowOpen); got != StatusSubmitted {
		t.Fatalf("expected SUBMITTED while open, got %s", got)
	}
	if got := submitted.EffectiveStatus(fixture.WindowLocked); got != StatusLocked {
		t.Fatalf("expected LOCKED after kickoff, got %s", got)
	}
	processed := Prediction{Status: StatusProcessed}
	if got := processed.EffectiveStatus(fixture.WindowFinished); got != StatusProcessed {
		t.Fatalf("expected PROCESSED to stay, got %s", got)
	}
}
