package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"bytemomo/moray/internal/domain"
	"bytemomo/moray/internal/morayerr"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapture struct {
	mu         sync.Mutex
	completeAt int // poll number that succeeds; 0 never
	startErr   error
	starts     int
	stops      int
	checks     int
	onCheck    func(n int)
}

func (f *fakeCapture) Start(string, domain.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeCapture) CheckComplete(context.Context) bool {
	f.mu.Lock()
	f.checks++
	n, hook := f.checks, f.onCheck
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return f.completeAt > 0 && n >= f.completeAt
}

func (f *fakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeCapture) ArtifactPath() string { return "captures/handshake_1700000000-01.cap" }
func (f *fakeCapture) IsRunning() bool      { return false }

type fakeDeauth struct {
	mu       sync.Mutex
	starts   int
	stops    int
	duration time.Duration
	client   string
}

func (f *fakeDeauth) Start(_, _, client string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.duration = d
	f.client = client
}

func (f *fakeDeauth) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeDeauth) IsRunning() bool { return false }

type fakeVerify struct {
	key   string
	err   error
	calls int
	cap   string
	words string
}

func (f *fakeVerify) Run(_ context.Context, capFile, wordlist, _ string) (string, error) {
	f.calls++
	f.cap, f.words = capFile, wordlist
	return f.key, f.err
}

func (f *fakeVerify) Stop()           {}
func (f *fakeVerify) IsRunning() bool { return false }

type fakeWordlist struct {
	n     int
	err   error
	seeds []string
}

func (f *fakeWordlist) Build(_, seed string) (int, error) {
	f.seeds = append(f.seeds, seed)
	return f.n, f.err
}

type fixture struct {
	capture  *fakeCapture
	deauth   *fakeDeauth
	verify   *fakeVerify
	wordlist *fakeWordlist
	orch     *AttackOrchestrator
}

func newFixture(completeAt int) *fixture {
	l := log.New()
	l.SetOutput(io.Discard)

	f := &fixture{
		capture:  &fakeCapture{completeAt: completeAt},
		deauth:   &fakeDeauth{},
		verify:   &fakeVerify{},
		wordlist: &fakeWordlist{n: 1234},
	}
	cfg := DefaultOrchestratorConfig()
	cfg.PollInterval = time.Millisecond
	f.orch = NewAttackOrchestrator(f.capture, f.deauth, f.verify, f.wordlist, cfg, log.NewEntry(l))
	return f
}

func testTarget(t *testing.T) domain.Target {
	t.Helper()
	tg, err := domain.ParseTarget("HomeNet", "aa:bb:cc:dd:ee:ff", 6, "wlan0mon", "")
	require.NoError(t, err)
	return tg
}

func (f *fixture) assertStoppedOnce(t *testing.T) {
	t.Helper()
	assert.Equal(t, 1, f.capture.stops, "capture stops")
	assert.Equal(t, 1, f.deauth.stops, "deauth stops")
}

func TestExecute_CapturedOnFifthPoll(t *testing.T) {
	f := newFixture(5)
	f.verify.key = "Sunshine123"

	res, err := f.orch.Execute(context.Background(), testTarget(t))
	require.NoError(t, err)

	assert.Equal(t, []domain.AttackState{
		domain.StateIdle,
		domain.StateCapturing,
		domain.StateCaptured,
		domain.StateVerifying,
		domain.StateCracked,
	}, res.History)
	assert.Equal(t, 5, res.Polls)
	assert.Equal(t, 5, f.capture.checks)
	f.assertStoppedOnce(t)

	assert.True(t, res.Cracked())
	assert.Equal(t, "Sunshine123", res.Credential)
	assert.Equal(t, 1, f.verify.calls)
	assert.Equal(t, "captures/handshake_1700000000-01.cap", f.verify.cap)
	assert.Equal(t, "wordlist.txt", f.verify.words)
	assert.Equal(t, 1234, res.WordlistSize)
	assert.Equal(t, []string{"HomeNet"}, f.wordlist.seeds)
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.CapturedAt.IsZero())
	assert.NoError(t, Outcome(res))
}

func TestExecute_CaptureTimedOut(t *testing.T) {
	f := newFixture(0)

	res, err := f.orch.Execute(context.Background(), testTarget(t))
	require.NoError(t, err)

	assert.Equal(t, domain.StateCaptureTimedOut, res.State)
	assert.Equal(t, 30, f.capture.checks)
	assert.Zero(t, f.verify.calls, "verification must not run without a handshake")
	assert.Empty(t, f.wordlist.seeds)
	f.assertStoppedOnce(t)
	assert.ErrorIs(t, Outcome(res), ErrTimedOut)
}

func TestExecute_SessionsStarted(t *testing.T) {
	f := newFixture(1)
	f.orch.config.DeauthDuration = 45 * time.Second
	tg := testTarget(t)
	tg.Client = []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

	_, err := f.orch.Execute(context.Background(), tg)
	require.NoError(t, err)

	assert.Equal(t, 1, f.capture.starts)
	assert.Equal(t, 1, f.deauth.starts)
	assert.Equal(t, 45*time.Second, f.deauth.duration)
	assert.Equal(t, "11:22:33:44:55:66", f.deauth.client)
}

func TestExecute_NotFound(t *testing.T) {
	f := newFixture(1)

	res, err := f.orch.Execute(context.Background(), testTarget(t))
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotFound, res.State)
	assert.Empty(t, res.Credential)
	assert.ErrorIs(t, Outcome(res), ErrNotFound)
}

func TestExecute_VerificationSoftFailures(t *testing.T) {
	for _, kind := range []error{morayerr.ErrMissingInput, morayerr.ErrNoBSSID} {
		t.Run(kind.Error(), func(t *testing.T) {
			f := newFixture(1)
			f.verify.err = morayerr.E("session.verify", kind, "", nil)

			res, err := f.orch.Execute(context.Background(), testTarget(t))
			require.NoError(t, err)
			assert.Equal(t, domain.StateNotFound, res.State)
			assert.Len(t, res.Errors, 1)
		})
	}
}

func TestExecute_VerifierSpawnFailure(t *testing.T) {
	f := newFixture(1)
	f.verify.err = morayerr.E("process.spawn", morayerr.ErrSpawn, "aircrack-ng", errors.New("not found"))

	res, err := f.orch.Execute(context.Background(), testTarget(t))
	assert.ErrorIs(t, err, morayerr.ErrSpawn)
	assert.Equal(t, domain.StateAborted, res.State)
}

func TestExecute_CaptureSpawnFailure(t *testing.T) {
	f := newFixture(1)
	f.capture.startErr = morayerr.E("process.spawn", morayerr.ErrSpawn, "airodump-ng", errors.New("not found"))

	res, err := f.orch.Execute(context.Background(), testTarget(t))
	assert.ErrorIs(t, err, morayerr.ErrSpawn)
	assert.Equal(t, []domain.AttackState{domain.StateIdle, domain.StateCapturing, domain.StateAborted}, res.History)
	assert.Zero(t, f.capture.checks, "polled after a failed start")
	f.assertStoppedOnce(t)
}

func TestExecute_WordlistFailure(t *testing.T) {
	f := newFixture(1)
	f.wordlist.err = errors.New("disk full")

	res, err := f.orch.Execute(context.Background(), testTarget(t))
	assert.Error(t, err)
	assert.Equal(t, domain.StateAborted, res.State)
	assert.Zero(t, f.verify.calls, "verification ran without a wordlist")
}

func TestExecute_Cancelled(t *testing.T) {
	f := newFixture(0)
	tg := testTarget(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.capture.onCheck = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	f.orch.config.PollInterval = 10 * time.Millisecond

	done := make(chan struct{})
	var (
		res *AttackResult
		err error
	)
	go func() {
		defer close(done)
		res, err = f.orch.Execute(ctx, tg)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Execute ignored cancellation")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.StateAborted, res.State)
	f.assertStoppedOnce(t)
}

func TestExecute_InvalidTarget(t *testing.T) {
	f := newFixture(1)

	res, err := f.orch.Execute(context.Background(), domain.Target{Name: "x"})
	assert.Error(t, err)
	assert.Equal(t, domain.StateAborted, res.State)
	assert.Zero(t, f.capture.starts, "capture started for an invalid target")
}

func TestGetStatus(t *testing.T) {
	f := newFixture(3)
	assert.Equal(t, domain.StateIdle, f.orch.GetStatus().State)

	res, err := f.orch.Execute(context.Background(), testTarget(t))
	require.NoError(t, err)

	st := f.orch.GetStatus()
	assert.Equal(t, res.State, st.State)
	assert.Equal(t, 3, st.Polls)
	assert.Equal(t, res.RunID, st.RunID)
}
