package session

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"bytemomo/moray/internal/morayerr"
	"bytemomo/moray/internal/process/processtest"
)

const inspectOutput = "Opening handshake_1700000000-01.cap\nBSSID AA:BB:CC:DD:EE:FF\n"

type verifyFixture struct {
	cap, wordlist string
}

func newVerifyFixture(t *testing.T) verifyFixture {
	t.Helper()
	dir := t.TempDir()
	return verifyFixture{
		cap:      writeFile(t, dir, "handshake-01.cap", 4096),
		wordlist: writeFile(t, dir, "wordlist.txt", 64),
	}
}

func TestVerifyKeyFound(t *testing.T) {
	fx := newVerifyFixture(t)
	r := &processtest.Runner{
		Outputs: map[string]string{"aircrack-ng": inspectOutput},
		Scripts: map[string]processtest.Script{"aircrack-ng": {
			Lines: []string{"Opening capture", "[00:00:02] 1200 keys tested", "KEY FOUND! [ Sunshine123 ]"},
			Block: true,
		}},
	}
	v := NewVerification(r, quietLog())

	key, err := v.Run(context.Background(), fx.cap, fx.wordlist, "HomeNet")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if key != "Sunshine123" {
		t.Fatalf("key = %q", key)
	}

	want := []string{"-w", fx.wordlist, "-b", "AA:BB:CC:DD:EE:FF", fx.cap}
	if got := r.Spawns()[0].Args; !slices.Equal(got, want) {
		t.Fatalf("args = %v", got)
	}
	if r.Live() != 0 || v.IsRunning() {
		t.Fatal("verifier left running after a match")
	}
}

func TestVerifyMissingWordlist(t *testing.T) {
	fx := newVerifyFixture(t)
	r := &processtest.Runner{Outputs: map[string]string{"aircrack-ng": inspectOutput}}
	v := NewVerification(r, quietLog())

	_, err := v.Run(context.Background(), fx.cap, filepath.Join(t.TempDir(), "nope.txt"), "HomeNet")
	if !errors.Is(err, morayerr.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	if r.SpawnCount() != 0 || len(r.Executes()) != 0 {
		t.Fatal("no process may start without inputs")
	}
}

func TestVerifyEmptyCapture(t *testing.T) {
	fx := newVerifyFixture(t)
	empty := writeFile(t, t.TempDir(), "empty.cap", 0)
	r := &processtest.Runner{}
	v := NewVerification(r, quietLog())

	if _, err := v.Run(context.Background(), empty, fx.wordlist, "HomeNet"); !errors.Is(err, morayerr.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	if r.SpawnCount() != 0 {
		t.Fatal("spawned with empty capture")
	}
}

func TestVerifyNoBSSID(t *testing.T) {
	fx := newVerifyFixture(t)
	r := &processtest.Runner{Outputs: map[string]string{"aircrack-ng": "No networks found"}}
	v := NewVerification(r, quietLog())

	_, err := v.Run(context.Background(), fx.cap, fx.wordlist, "HomeNet")
	if !errors.Is(err, morayerr.ErrNoBSSID) {
		t.Fatalf("err = %v, want ErrNoBSSID", err)
	}
	if r.SpawnCount() != 0 {
		t.Fatal("verifier spawned without a BSSID")
	}
}

func TestVerifyNotFound(t *testing.T) {
	for _, code := range []int{0, 1} {
		fx := newVerifyFixture(t)
		r := &processtest.Runner{
			Outputs: map[string]string{"aircrack-ng": inspectOutput},
			Scripts: map[string]processtest.Script{"aircrack-ng": {
				Lines:    []string{"Passphrase not in dictionary"},
				ExitCode: code,
			}},
		}
		v := NewVerification(r, quietLog())

		key, err := v.Run(context.Background(), fx.cap, fx.wordlist, "HomeNet")
		if err != nil || key != "" {
			t.Fatalf("exit %d: key=%q err=%v", code, key, err)
		}
		if v.IsRunning() {
			t.Fatalf("exit %d: still running", code)
		}
	}
}

func TestVerifyContextCancel(t *testing.T) {
	fx := newVerifyFixture(t)
	r := &processtest.Runner{Outputs: map[string]string{"aircrack-ng": inspectOutput}}
	v := NewVerification(r, quietLog())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := v.Run(ctx, fx.cap, fx.wordlist, "HomeNet")
		errc <- err
	}()

	waitFor(t, "verifier spawn", func() bool { return r.SpawnCount() == 1 })
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if r.Live() != 0 {
		t.Fatal("verifier survived cancellation")
	}
}

func TestVerifyStop(t *testing.T) {
	fx := newVerifyFixture(t)
	r := &processtest.Runner{Outputs: map[string]string{"aircrack-ng": inspectOutput}}
	v := NewVerification(r, quietLog())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = v.Run(context.Background(), fx.cap, fx.wordlist, "HomeNet")
	}()
	waitFor(t, "verifier running", v.IsRunning)

	v.Stop()
	<-done
	v.Stop()
	if r.Live() != 0 || v.IsRunning() {
		t.Fatal("verifier left running")
	}
}

func TestVerifySpawnFailure(t *testing.T) {
	fx := newVerifyFixture(t)
	r := &processtest.Runner{
		Outputs:  map[string]string{"aircrack-ng": inspectOutput},
		SpawnErr: errors.New("exec: not found"),
	}
	v := NewVerification(r, quietLog())

	if _, err := v.Run(context.Background(), fx.cap, fx.wordlist, "HomeNet"); !morayerr.IsFatal(err) {
		t.Fatalf("err = %v, want a spawn failure", err)
	}
}
