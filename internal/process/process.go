// Package process spawns and controls the external tools driven by attack
// sessions. Every spawned tool runs in its own process group so that
// termination reaches helpers it forks.
package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"bytemomo/moray/internal/metrics"
	"bytemomo/moray/internal/morayerr"

	log "github.com/sirupsen/logrus"
)

// DefaultGrace is how long Terminate waits after SIGTERM before SIGKILL.
const DefaultGrace = 3 * time.Second

// Process is a spawned external tool. It is owned by exactly one session.
type Process interface {
	PID() int
	// ReadLine blocks until a line of output is available. It returns io.EOF
	// once the stream ends or the handle is terminated.
	ReadLine() (string, error)
	// Terminate signals the process group and blocks until the process has
	// exited. Calling it on a terminated handle is a no-op.
	Terminate() error
	// Wait blocks until natural exit and returns the exit code. A non-zero
	// code comes with a morayerr.ErrAbnormalExit error.
	Wait() (int, error)
}

// Runner is the capability set a session needs from the operating system.
type Runner interface {
	Spawn(name string, args []string, combined bool) (Process, error)
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

// Exec runs tools through os/exec.
type Exec struct {
	Grace time.Duration
	Log   *log.Entry
}

// NewExec returns an Exec runner with the default grace period.
func NewExec(l *log.Entry) *Exec {
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}
	return &Exec{Grace: DefaultGrace, Log: l}
}

var _ Runner = (*Exec)(nil)

func (e *Exec) grace() time.Duration {
	if e.Grace <= 0 {
		return DefaultGrace
	}
	return e.Grace
}

// Spawn starts name with args. When combined is false the tool's output is
// discarded and ReadLine reports io.EOF straight away.
func (e *Exec) Spawn(name string, args []string, combined bool) (Process, error) {
	const op = "process.spawn"

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, morayerr.E(op, morayerr.ErrSpawn, name, err)
	}

	cmd := exec.Command(path, args...)
	setProcessGroup(cmd)

	p := &execProcess{
		cmd:   cmd,
		name:  name,
		grace: e.grace(),
		done:  make(chan struct{}),
		log:   e.Log.WithField("tool", name),
	}

	var pw *os.File
	if combined {
		pr, w, err := os.Pipe()
		if err != nil {
			return nil, morayerr.E(op, morayerr.ErrSpawn, "create output pipe", err)
		}
		cmd.Stdout = w
		cmd.Stderr = w
		pw = w
		p.pr = pr
		p.scanner = bufio.NewScanner(pr)
		p.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		p.scanner.Split(scanLines)
	}

	if err := cmd.Start(); err != nil {
		if pw != nil {
			pw.Close()
			p.pr.Close()
		}
		return nil, morayerr.E(op, morayerr.ErrSpawn, name, err)
	}
	if pw != nil {
		// The child holds its own copy; ours would keep the stream open forever.
		pw.Close()
	}

	metrics.ProcessSpawns.WithLabelValues(filepath.Base(name)).Inc()
	p.log = p.log.WithField("pid", cmd.Process.Pid)
	p.log.WithField("args", args).Debug("Process spawned")

	go p.reap()
	return p, nil
}

// Execute runs name to completion and returns its combined output. A non-zero
// exit returns the output together with a morayerr.ErrAbnormalExit error.
func (e *Exec) Execute(ctx context.Context, name string, args ...string) (string, error) {
	const op = "process.execute"

	path, err := exec.LookPath(name)
	if err != nil {
		return "", morayerr.E(op, morayerr.ErrSpawn, name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = e.grace()

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	metrics.ProcessSpawns.WithLabelValues(filepath.Base(name)).Inc()
	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return out.String(), morayerr.Exit(op, ee.ExitCode(), err)
		}
		return out.String(), morayerr.E(op, morayerr.ErrSpawn, name, err)
	}
	return out.String(), nil
}

type execProcess struct {
	cmd   *exec.Cmd
	name  string
	grace time.Duration
	log   *log.Entry

	pr      *os.File
	scanner *bufio.Scanner
	release sync.Once

	termMu sync.Mutex
	done   chan struct{}

	mu       sync.Mutex
	exitCode int
	waitErr  error
}

func (p *execProcess) PID() int { return p.cmd.Process.Pid }

func (p *execProcess) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.waitErr = err
	p.exitCode = p.cmd.ProcessState.ExitCode()
	p.mu.Unlock()

	close(p.done)
}

func (p *execProcess) ReadLine() (string, error) {
	if p.scanner == nil {
		return "", io.EOF
	}
	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}
	if err := p.scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return "", err
	}
	return "", io.EOF
}

func (p *execProcess) Terminate() error {
	p.termMu.Lock()
	defer p.termMu.Unlock()

	select {
	case <-p.done:
		p.closeOutput()
		return nil
	default:
	}

	pid := p.cmd.Process.Pid
	if err := signalGroup(pid, syscall.SIGTERM); err != nil {
		p.log.WithError(err).Warn("Failed to signal process group")
	}

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		p.log.Warn("Process ignored SIGTERM, killing group")
		if err := signalGroup(pid, syscall.SIGKILL); err != nil {
			p.log.WithError(err).Error("Failed to kill process group")
		}
		<-p.done
	}

	p.closeOutput()
	p.log.Debug("Process terminated")
	return nil
}

func (p *execProcess) Wait() (int, error) {
	<-p.done
	p.closeOutput()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exitCode != 0 {
		return p.exitCode, morayerr.Exit("process.wait", p.exitCode, p.waitErr)
	}
	return 0, nil
}

func (p *execProcess) closeOutput() {
	p.release.Do(func() {
		if p.pr != nil {
			p.pr.Close()
		}
	})
}

// scanLines splits on '\n' and on bare '\r', which the aircrack-ng suite uses
// to redraw progress lines in place.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		if data[i] == '\r' && i+1 == len(data) && !atEOF {
			// Might be the first half of "\r\n".
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
