package morayerr

import (
	"errors"
	"os"
	"testing"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := E("capture.start", ErrSpawn, "airodump-ng", os.ErrNotExist)

	if !errors.Is(err, ErrSpawn) {
		t.Errorf("expected errors.Is(err, ErrSpawn)")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected errors.Is(err, os.ErrNotExist)")
	}
	if errors.Is(err, ErrMissingInput) {
		t.Errorf("unexpected match on ErrMissingInput")
	}
	if got := err.Error(); got != "capture.start: airodump-ng: file does not exist" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestErrorMessageFallsBackToKind(t *testing.T) {
	err := E("verify.run", ErrMissingInput, "", nil)
	if got := err.Error(); got != "verify.run: missing input" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"spawn", E("op", ErrSpawn, "", nil), true},
		{"missing input", E("op", ErrMissingInput, "", nil), false},
		{"abnormal exit", Exit("op", 1, nil), false},
		{"worker fault", E("op", ErrWorkerFault, "", nil), false},
	}
	for _, tc := range cases {
		if got := IsFatal(tc.err); got != tc.want {
			t.Errorf("%s: IsFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(Exit("op", 3, nil)); got != 3 {
		t.Errorf("expected exit code 3, got %d", got)
	}
	if got := ExitCode(errors.New("plain")); got != -1 {
		t.Errorf("expected -1 for plain error, got %d", got)
	}
}
