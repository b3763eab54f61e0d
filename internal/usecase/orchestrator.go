package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bytemomo/moray/internal/domain"
	"bytemomo/moray/internal/metrics"
	"bytemomo/moray/internal/morayerr"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "bytemomo/moray/internal/usecase"

// AttackResult contains the complete outcome of one attack run
type AttackResult struct {
	RunID        string                 `json:"run_id"`
	Target       string                 `json:"target"`
	BSSID        string                 `json:"bssid"`
	Channel      int                    `json:"channel"`
	State        domain.AttackState     `json:"state"`
	History      []domain.AttackState   `json:"history"`
	Artifact     domain.CaptureArtifact `json:"artifact"`
	Credential   string                 `json:"credential,omitempty"`
	Wordlist     string                 `json:"wordlist,omitempty"`
	WordlistSize int                    `json:"wordlist_size,omitempty"`
	Polls        int                    `json:"polls"`
	StartTime    time.Time              `json:"start_time"`
	CapturedAt   time.Time              `json:"captured_at,omitzero"`
	EndTime      time.Time              `json:"end_time"`
	Duration     time.Duration          `json:"duration"`
	Errors       []string               `json:"errors,omitempty"`
}

// Cracked reports whether the run recovered the credential.
func (r *AttackResult) Cracked() bool { return r.State == domain.StateCracked }

// AttackStatus represents the current status of orchestration
type AttackStatus struct {
	RunID     string             `json:"run_id,omitempty"`
	State     domain.AttackState `json:"state"`
	Polls     int                `json:"polls"`
	StartTime time.Time          `json:"start_time"`
	Message   string             `json:"message,omitempty"`
}

// OrchestratorConfig contains orchestrator configuration
type OrchestratorConfig struct {
	DeauthDuration time.Duration `yaml:"deauth_duration" json:"deauth_duration"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
	PollAttempts   int           `yaml:"poll_attempts" json:"poll_attempts"`
	WordlistPath   string        `yaml:"wordlist_path" json:"wordlist_path"`
}

// DefaultOrchestratorConfig returns default orchestrator configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		DeauthDuration: 30 * time.Second,
		PollInterval:   time.Second,
		PollAttempts:   30,
		WordlistPath:   "wordlist.txt",
	}
}

// AttackOrchestrator walks one target through capture, deauthentication and
// verification.
type AttackOrchestrator struct {
	capture  domain.CaptureSession
	deauth   domain.DeauthSession
	verify   domain.VerificationSession
	wordlist domain.WordlistBuilder
	config   OrchestratorConfig
	log      *log.Entry
	tracer   trace.Tracer

	mu     sync.Mutex
	status AttackStatus
}

// NewAttackOrchestrator creates a new attack orchestrator
func NewAttackOrchestrator(
	capture domain.CaptureSession,
	deauth domain.DeauthSession,
	verify domain.VerificationSession,
	wordlist domain.WordlistBuilder,
	config OrchestratorConfig,
	l *log.Entry,
) *AttackOrchestrator {
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}
	return &AttackOrchestrator{
		capture:  capture,
		deauth:   deauth,
		verify:   verify,
		wordlist: wordlist,
		config:   config,
		log:      l,
		tracer:   otel.Tracer(tracerName),
		status:   AttackStatus{State: domain.StateIdle},
	}
}

// GetStatus returns the current orchestration status
func (o *AttackOrchestrator) GetStatus() AttackStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// attackRun carries the mutable state of one Execute call.
type attackRun struct {
	o      *AttackOrchestrator
	result *AttackResult
	target domain.Target
	log    *log.Entry
	span   trace.Span

	stopOnce sync.Once
}

// Execute runs the attack against t. The error is non-nil only for hard
// failures (spawn/setup errors, cancellation); the result is always returned.
func (o *AttackOrchestrator) Execute(ctx context.Context, t domain.Target) (*AttackResult, error) {
	result := &AttackResult{
		RunID:     uuid.NewString(),
		Target:    t.Name,
		BSSID:     t.BSSIDString(),
		Channel:   t.Channel,
		State:     domain.StateIdle,
		History:   []domain.AttackState{domain.StateIdle},
		StartTime: time.Now(),
	}

	ctx, span := o.tracer.Start(ctx, "moray.attack", trace.WithAttributes(
		attribute.String("moray.run_id", result.RunID),
		attribute.String("moray.target", t.Name),
		attribute.String("moray.bssid", result.BSSID),
		attribute.Int("moray.channel", t.Channel),
	))
	defer span.End()

	run := &attackRun{
		o:      o,
		result: result,
		target: t,
		span:   span,
		log: o.log.WithFields(log.Fields{
			"run_id": result.RunID,
			"target": t.String(),
		}),
	}

	o.mu.Lock()
	o.status = AttackStatus{RunID: result.RunID, State: domain.StateIdle, StartTime: result.StartTime}
	o.mu.Unlock()

	err := run.execute(ctx)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	metrics.AttackDuration.Observe(result.Duration.Seconds())

	span.SetAttributes(attribute.String("moray.state", string(result.State)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	run.log.WithFields(log.Fields{
		"state":    result.State,
		"duration": result.Duration.Round(time.Millisecond),
	}).Info("Attack finished")
	return result, err
}

func (r *attackRun) execute(ctx context.Context) error {
	if err := r.target.Validate(); err != nil {
		return r.abort(fmt.Errorf("invalid target: %w", err))
	}

	captured, err := r.captureHandshake(ctx)
	if err != nil {
		return r.abort(err)
	}
	if !captured {
		return nil
	}

	return r.crack(ctx)
}

// captureHandshake runs the Capturing state. It reports whether a handshake
// was captured; both sessions are stopped exactly once on every path.
func (r *attackRun) captureHandshake(ctx context.Context) (bool, error) {
	o := r.o
	ctx, span := o.tracer.Start(ctx, "moray.capture")
	defer span.End()
	defer r.stopSessions()

	r.transition(domain.StateCapturing)

	var g errgroup.Group
	g.Go(func() error {
		if err := o.capture.Start(r.target.Interface, r.target); err != nil {
			return fmt.Errorf("start capture: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		o.deauth.Start(r.target.Interface, r.target.BSSIDString(), r.target.ClientString(), o.config.DeauthDuration)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return false, err
	}

	interval := o.config.PollInterval
	attempts := max(o.config.PollAttempts, 1)

	for poll := 1; poll <= attempts; poll++ {
		r.result.Polls = poll
		o.setPolls(poll)

		if o.capture.CheckComplete(ctx) {
			r.stopSessions()
			r.result.CapturedAt = time.Now()
			r.result.Artifact = r.artifact()
			span.SetAttributes(attribute.Int("moray.polls", poll))
			r.log.WithFields(log.Fields{
				"poll":     poll,
				"artifact": r.result.Artifact.Path,
			}).Info("Handshake captured")
			r.transition(domain.StateCaptured)
			return true, nil
		}

		if poll == attempts {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return false, err
		}
	}

	r.stopSessions()
	r.result.Artifact = r.artifact()
	r.log.WithField("polls", attempts).Warn("No handshake captured")
	r.transition(domain.StateCaptureTimedOut)
	return false, nil
}

// crack runs the Captured -> Verifying -> Cracked/NotFound leg.
func (r *attackRun) crack(ctx context.Context) error {
	o := r.o
	ctx, span := o.tracer.Start(ctx, "moray.verify")
	defer span.End()

	path := o.config.WordlistPath
	n, err := o.wordlist.Build(path, r.target.Name)
	if err != nil {
		span.RecordError(err)
		return r.abort(fmt.Errorf("build wordlist: %w", err))
	}
	r.result.Wordlist = path
	r.result.WordlistSize = n
	span.SetAttributes(attribute.Int("moray.wordlist_size", n))
	r.log.WithFields(log.Fields{"wordlist": path, "candidates": n}).Info("Wordlist ready")

	r.transition(domain.StateVerifying)

	key, err := o.verify.Run(ctx, r.result.Artifact.Path, path, r.target.Name)
	switch {
	case err == nil && key != "":
		r.result.Credential = key
		r.transition(domain.StateCracked)
		return nil
	case err == nil:
		r.transition(domain.StateNotFound)
		return nil
	case morayerr.IsFatal(err), ctx.Err() != nil:
		span.RecordError(err)
		return r.abort(err)
	default:
		// Missing input or no BSSID: the run ends without a credential.
		r.result.Errors = append(r.result.Errors, err.Error())
		r.log.WithError(err).Warn("Verification skipped")
		r.transition(domain.StateNotFound)
		return nil
	}
}

func (r *attackRun) stopSessions() {
	r.stopOnce.Do(func() {
		r.o.deauth.Stop()
		r.o.capture.Stop()
	})
}

type artifactSource interface {
	Artifact() domain.CaptureArtifact
}

func (r *attackRun) artifact() domain.CaptureArtifact {
	if src, ok := r.o.capture.(artifactSource); ok {
		return src.Artifact()
	}
	return domain.CaptureArtifact{Path: r.o.capture.ArtifactPath()}
}

func (r *attackRun) abort(err error) error {
	r.result.Errors = append(r.result.Errors, err.Error())
	r.log.WithError(err).Error("Attack aborted")
	r.transition(domain.StateAborted)
	return err
}

func (r *attackRun) transition(to domain.AttackState) {
	from := r.result.State
	if !domain.CanTransition(from, to) {
		r.log.WithFields(log.Fields{"from": from, "to": to}).Error("Illegal state transition")
	}
	r.result.State = to
	r.result.History = append(r.result.History, to)

	metrics.StateTransitions.WithLabelValues(string(to)).Inc()
	r.span.AddEvent("state", trace.WithAttributes(attribute.String("moray.state", string(to))))
	r.log.WithField("state", to).Debug("State changed")

	r.o.mu.Lock()
	r.o.status.State = to
	r.o.mu.Unlock()
}

func (o *AttackOrchestrator) setPolls(n int) {
	o.mu.Lock()
	o.status.Polls = n
	o.status.Message = fmt.Sprintf("poll %d/%d", n, o.config.PollAttempts)
	o.mu.Unlock()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outcomes of completed runs that did not recover a credential.
var (
	ErrTimedOut = errors.New("no handshake captured")
	ErrNotFound = errors.New("credential not in wordlist")
)

// Outcome summarizes a terminal result as an error for callers that only
// care about success.
func Outcome(r *AttackResult) error {
	switch r.State {
	case domain.StateCracked:
		return nil
	case domain.StateCaptureTimedOut:
		return ErrTimedOut
	case domain.StateNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("attack ended in state %s", r.State)
	}
}
