// Package processtest provides an in-memory process.Runner for session tests.
package processtest

import (
	"context"
	"io"
	"sync"

	"bytemomo/moray/internal/morayerr"
	"bytemomo/moray/internal/process"
)

// Script describes what a fake process prints and how it ends.
type Script struct {
	Lines    []string
	ExitCode int
	// Block keeps the process alive after Lines until it is terminated.
	Block bool
}

// Call records one Spawn or Execute invocation.
type Call struct {
	Name string
	Args []string
}

// Runner is a scripted process.Runner. Scripts and outputs are keyed by tool
// name. Unknown tools spawn a blocking process with no output.
type Runner struct {
	Scripts  map[string]Script
	Outputs  map[string]string
	SpawnErr error
	ExecErr  error

	mu       sync.Mutex
	spawns   []Call
	executes []Call
	procs    []*Process
}

var _ process.Runner = (*Runner)(nil)

func (r *Runner) Spawn(name string, args []string, combined bool) (process.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spawns = append(r.spawns, Call{Name: name, Args: append([]string(nil), args...)})
	if r.SpawnErr != nil {
		return nil, morayerr.E("processtest.spawn", morayerr.ErrSpawn, name, r.SpawnErr)
	}

	script, ok := r.Scripts[name]
	if !ok {
		script = Script{Block: true}
	}
	if !combined {
		script.Lines = nil
	}

	p := NewProcess(len(r.procs)+1000, script)
	r.procs = append(r.procs, p)
	return p, nil
}

func (r *Runner) Execute(ctx context.Context, name string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executes = append(r.executes, Call{Name: name, Args: append([]string(nil), args...)})
	if r.ExecErr != nil {
		return "", r.ExecErr
	}
	return r.Outputs[name], nil
}

// Spawns returns a copy of the recorded Spawn calls.
func (r *Runner) Spawns() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.spawns...)
}

// Executes returns a copy of the recorded Execute calls.
func (r *Runner) Executes() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.executes...)
}

// SpawnCount returns how many processes were requested.
func (r *Runner) SpawnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spawns)
}

// Live returns how many spawned processes have not exited.
func (r *Runner) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.procs {
		if p.Alive() {
			n++
		}
	}
	return n
}

// Processes returns the spawned fakes in spawn order.
func (r *Runner) Processes() []*Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Process(nil), r.procs...)
}

// Process is a fake process.Process driven by a Script.
type Process struct {
	pid    int
	script Script

	mu           sync.Mutex
	next         int
	terminations int
	done         chan struct{}
	once         sync.Once
}

// NewProcess returns a running fake.
func NewProcess(pid int, s Script) *Process {
	return &Process{pid: pid, script: s, done: make(chan struct{})}
}

func (p *Process) PID() int { return p.pid }

func (p *Process) ReadLine() (string, error) {
	p.mu.Lock()
	if p.next < len(p.script.Lines) {
		select {
		case <-p.done:
			p.mu.Unlock()
			return "", io.EOF
		default:
		}
		line := p.script.Lines[p.next]
		p.next++
		p.mu.Unlock()
		return line, nil
	}
	block := p.script.Block
	p.mu.Unlock()

	if block {
		<-p.done
	} else {
		p.exit()
	}
	return "", io.EOF
}

func (p *Process) Terminate() error {
	p.mu.Lock()
	p.terminations++
	p.mu.Unlock()
	p.exit()
	return nil
}

func (p *Process) Wait() (int, error) {
	<-p.done
	if p.script.ExitCode != 0 {
		return p.script.ExitCode, morayerr.Exit("processtest.wait", p.script.ExitCode, nil)
	}
	return 0, nil
}

func (p *Process) exit() { p.once.Do(func() { close(p.done) }) }

// Alive reports whether the fake has neither exited nor been terminated.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminations returns how many times Terminate was called.
func (p *Process) Terminations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminations
}
