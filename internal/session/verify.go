package session

import (
	"context"
	"fmt"
	"sync"

	"bytemomo/moray/internal/domain"
	"bytemomo/moray/internal/morayerr"
	"bytemomo/moray/internal/process"

	log "github.com/sirupsen/logrus"
)

// Verification runs the dictionary oracle once against a capture.
type Verification struct {
	Tool        string
	InspectTool string

	runner process.Runner
	log    *log.Entry

	mu      sync.Mutex
	proc    process.Process
	running bool
}

var _ domain.VerificationSession = (*Verification)(nil)

func NewVerification(r process.Runner, l *log.Entry) *Verification {
	return &Verification{
		Tool:        DefaultVerifyTool,
		InspectTool: DefaultVerifyTool,
		runner:      r,
		log:         entry(l, "verify"),
	}
}

// Run checks the wordlist against capFile and returns the recovered
// credential, or "" when the oracle finished without a match.
func (v *Verification) Run(ctx context.Context, capFile, wordlist, targetName string) (string, error) {
	const op = "session.verify"
	l := v.log.WithField("target", targetName)

	if err := requireFile(op, "capture file", capFile); err != nil {
		return "", err
	}
	if err := requireFile(op, "wordlist", wordlist); err != nil {
		return "", err
	}

	bssid, err := v.bssid(ctx, capFile)
	if err != nil {
		return "", err
	}

	v.Stop()
	p, err := v.runner.Spawn(v.Tool, []string{"-w", wordlist, "-b", bssid, capFile}, true)
	if err != nil {
		return "", err
	}

	v.mu.Lock()
	v.proc = p
	v.running = true
	v.mu.Unlock()
	defer v.release(p)

	l = l.WithFields(log.Fields{"pid": p.PID(), "bssid": bssid})
	l.Info("Verification started")

	stopWatch := context.AfterFunc(ctx, func() { _ = p.Terminate() })
	defer stopWatch()

	for {
		line, err := p.ReadLine()
		if err != nil {
			break
		}
		l.Debug(line)
		if key, ok := ExtractKey(line); ok {
			_ = p.Terminate()
			l.Info("Credential recovered")
			return key, nil
		}
	}

	if err := ctx.Err(); err != nil {
		_ = p.Terminate()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if code, err := p.Wait(); err != nil {
		l.WithField("code", code).WithError(err).Warn("Verifier exited abnormally")
		return "", nil
	}
	l.Info("Wordlist exhausted without a match")
	return "", nil
}

func (v *Verification) bssid(ctx context.Context, capFile string) (string, error) {
	const op = "session.verify.bssid"

	out, err := v.runner.Execute(ctx, v.InspectTool, "-J", capFile)
	if morayerr.IsFatal(err) {
		return "", err
	}
	bssid := ExtractBSSID(out)
	if bssid == "" {
		return "", morayerr.E(op, morayerr.ErrNoBSSID, capFile, err)
	}
	return bssid, nil
}

func (v *Verification) release(p process.Process) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.proc == p {
		v.proc = nil
		v.running = false
	}
}

// Stop terminates a verification in progress. Safe to call repeatedly.
func (v *Verification) Stop() {
	v.mu.Lock()
	p := v.proc
	v.proc = nil
	v.running = false
	v.mu.Unlock()

	if p != nil {
		if err := p.Terminate(); err != nil {
			v.log.WithError(err).Warn("Failed to terminate verifier")
		}
	}
}

func (v *Verification) IsRunning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}
