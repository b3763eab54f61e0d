package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"bytemomo/moray/internal/domain"
	"bytemomo/moray/internal/metrics"
	"bytemomo/moray/internal/morayerr"
	"bytemomo/moray/internal/process"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultMinArtifactSize is the smallest capture worth inspecting.
	DefaultMinArtifactSize int64 = 1000
	// MinHandshakeFrames is the EAPOL frame count accepted as a complete handshake.
	MinHandshakeFrames = 4

	// airodump-ng numbers its output files per prefix.
	artifactSuffix = "-01.cap"
)

// FrameCounter counts the EAPOL frames in a capture file.
type FrameCounter interface {
	Count(ctx context.Context, capFile string) (int, error)
}

// Capture runs the passive capture tool against one target and answers
// whether the artifact holds a handshake yet.
type Capture struct {
	Tool        string
	InspectTool string
	Dir         string
	MinSize     int64
	Frames      FrameCounter

	runner process.Runner
	log    *log.Entry
	now    func() time.Time

	mu       sync.Mutex
	proc     process.Process
	prefix   string
	running  bool
	verified bool
}

var _ domain.CaptureSession = (*Capture)(nil)

// NewCapture returns a capture session writing under dir.
func NewCapture(r process.Runner, dir string, l *log.Entry) *Capture {
	return &Capture{
		Tool:        DefaultCaptureTool,
		InspectTool: DefaultVerifyTool,
		Dir:         dir,
		MinSize:     DefaultMinArtifactSize,
		runner:      r,
		log:         entry(l, "capture"),
		now:         time.Now,
	}
}

// Start launches the capture tool, replacing any previous run.
func (c *Capture) Start(iface string, t domain.Target) error {
	const op = "session.capture.start"
	c.Stop()

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return morayerr.E(op, morayerr.ErrSpawn, "create capture dir", err)
	}
	prefix := c.nextPrefix()

	args := []string{
		"--bssid", t.BSSIDString(),
		"--channel", strconv.Itoa(t.Channel),
		"--write", prefix,
		"--output-format", "pcap",
		iface,
	}
	p, err := c.runner.Spawn(c.Tool, args, false)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.proc = p
	c.prefix = prefix
	c.running = true
	c.verified = false
	c.mu.Unlock()

	c.log.WithFields(log.Fields{
		"pid":    p.PID(),
		"target": t.String(),
		"prefix": prefix,
	}).Info("Capture started")

	go c.reap(p)
	return nil
}

// nextPrefix returns handshake_<unix>, suffixed when an artifact from a run
// started in the same second already exists.
func (c *Capture) nextPrefix() string {
	base := filepath.Join(c.Dir, fmt.Sprintf("handshake_%d", c.now().Unix()))
	prefix := base
	for n := 1; ; n++ {
		if _, err := os.Stat(prefix + artifactSuffix); err != nil {
			return prefix
		}
		prefix = fmt.Sprintf("%s_%d", base, n)
	}
}

// reap clears the running flag when the tool exits on its own.
func (c *Capture) reap(p process.Process) {
	code, err := p.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proc != p {
		return
	}
	c.proc = nil
	c.running = false

	l := c.log.WithFields(log.Fields{"pid": p.PID(), "code": code})
	if err != nil {
		l = l.WithError(err)
	}
	l.Warn("Capture tool exited")
}

// CheckComplete reports whether the artifact contains a usable handshake.
func (c *Capture) CheckComplete(ctx context.Context) bool {
	metrics.CapturePolls.Inc()

	path := c.ArtifactPath()
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil || fi.Size() < c.minSize() {
		return false
	}

	out, err := c.runner.Execute(ctx, c.InspectTool, "-J", path)
	switch {
	case errors.Is(err, morayerr.ErrAbnormalExit):
		c.log.WithField("code", morayerr.ExitCode(err)).Debug("Inspection exited non-zero")
	case err != nil:
		c.log.WithError(err).Debug("Inspection failed")
	}
	if strings.Contains(out, handshakeMarker) {
		c.markVerified()
		return true
	}

	if c.Frames == nil {
		return false
	}
	n, err := c.Frames.Count(ctx, path)
	if err != nil {
		c.log.WithError(err).Debug("Frame count failed")
		return false
	}
	c.log.WithField("eapol_frames", n).Debug("Counted EAPOL frames")
	if n >= MinHandshakeFrames {
		c.markVerified()
		return true
	}
	return false
}

func (c *Capture) markVerified() {
	c.mu.Lock()
	c.verified = true
	c.mu.Unlock()
}

func (c *Capture) minSize() int64 {
	if c.MinSize <= 0 {
		return DefaultMinArtifactSize
	}
	return c.MinSize
}

// Stop terminates the capture tool. Safe to call repeatedly.
func (c *Capture) Stop() {
	c.mu.Lock()
	p := c.proc
	c.proc = nil
	c.running = false
	c.mu.Unlock()

	if p == nil {
		return
	}
	if err := p.Terminate(); err != nil {
		c.log.WithError(err).Warn("Failed to terminate capture tool")
	}
	c.log.WithField("pid", p.PID()).Info("Capture stopped")
}

// ArtifactPath returns the capture file of the current or last run, or "".
func (c *Capture) ArtifactPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prefix == "" {
		return ""
	}
	return c.prefix + artifactSuffix
}

// Artifact returns a snapshot of the capture file.
func (c *Capture) Artifact() domain.CaptureArtifact {
	path := c.ArtifactPath()

	c.mu.Lock()
	a := domain.CaptureArtifact{Path: path, Verified: c.verified}
	c.mu.Unlock()

	if path != "" {
		if fi, err := os.Stat(path); err == nil {
			a.Size = fi.Size()
		}
	}
	return a
}

func (c *Capture) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
