//go:build !windows

package process

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bytemomo/moray/internal/morayerr"

	"github.com/sirupsen/logrus"
)

func newTestExec() *Exec {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	e := NewExec(logrus.NewEntry(logger))
	e.Grace = time.Second
	return e
}

func readAll(t *testing.T, p Process) []string {
	t.Helper()
	var lines []string
	for {
		line, err := p.ReadLine()
		if errors.Is(err, io.EOF) {
			return lines
		}
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		lines = append(lines, line)
	}
}

func TestSpawnCombinedOutput(t *testing.T) {
	t.Parallel()

	p, err := newTestExec().Spawn("sh", []string{"-c", "echo one; echo two 1>&2"}, true)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	lines := readAll(t, p)
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("unexpected lines %q", lines)
	}

	code, err := p.Wait()
	if err != nil || code != 0 {
		t.Fatalf("expected clean exit, got code=%d err=%v", code, err)
	}
}

func TestSpawnDiscardedOutput(t *testing.T) {
	t.Parallel()

	p, err := newTestExec().Spawn("sh", []string{"-c", "echo hidden"}, false)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if _, err := p.ReadLine(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF without combined output, got %v", err)
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestSpawnMissingTool(t *testing.T) {
	t.Parallel()

	_, err := newTestExec().Spawn("moray-no-such-tool", nil, true)
	if !errors.Is(err, morayerr.ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
}

func TestWaitReportsAbnormalExit(t *testing.T) {
	t.Parallel()

	p, err := newTestExec().Spawn("sh", []string{"-c", "exit 3"}, true)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	readAll(t, p)

	code, err := p.Wait()
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !errors.Is(err, morayerr.ErrAbnormalExit) {
		t.Errorf("expected ErrAbnormalExit, got %v", err)
	}
}

func TestTerminateUnblocksReaderAndIsIdempotent(t *testing.T) {
	t.Parallel()

	p, err := newTestExec().Spawn("sh", []string{"-c", "sleep 30"}, true)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	readDone := make(chan error, 1)
	go func() {
		_, err := p.ReadLine()
		readDone <- err
	}()

	start := time.Now()
	if err := p.Terminate(); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Terminate took %s", elapsed)
	}

	select {
	case err := <-readDone:
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF after terminate, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ReadLine still blocked after Terminate")
	}

	if err := p.Terminate(); err != nil {
		t.Errorf("second Terminate should be a no-op, got %v", err)
	}
}

func TestTerminateAfterNaturalExit(t *testing.T) {
	t.Parallel()

	p, err := newTestExec().Spawn("sh", []string{"-c", "true"}, true)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	readAll(t, p)
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if err := p.Terminate(); err != nil {
		t.Errorf("Terminate on exited process returned %v", err)
	}
}

func TestSpawnSplitsCarriageReturns(t *testing.T) {
	t.Parallel()

	p, err := newTestExec().Spawn("sh", []string{"-c", `printf 'a\rb\r\nc\n'`}, true)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	lines := readAll(t, p)
	want := []string{"a", "b", "c"}
	if len(lines) != len(want) {
		t.Fatalf("expected %q, got %q", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
	_, _ = p.Wait()
}

func TestExecute(t *testing.T) {
	t.Parallel()

	out, err := newTestExec().Execute(context.Background(), "sh", "-c", "echo hello; echo err 1>&2")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "hello\nerr\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestExecuteNonZeroKeepsOutput(t *testing.T) {
	t.Parallel()

	out, err := newTestExec().Execute(context.Background(), "sh", "-c", "echo partial; exit 2")
	if out != "partial\n" {
		t.Errorf("expected output to survive a failing exit, got %q", out)
	}
	if !errors.Is(err, morayerr.ErrAbnormalExit) {
		t.Errorf("expected ErrAbnormalExit, got %v", err)
	}
	if morayerr.ExitCode(err) != 2 {
		t.Errorf("expected exit code 2, got %d", morayerr.ExitCode(err))
	}
}

func TestExecuteHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestExec().Execute(ctx, "sh", "-c", "sleep 30")
	if err == nil {
		t.Fatal("expected an error from a cancelled Execute")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Execute outlived its context by %s", elapsed)
	}
}

func TestExecuteMissingTool(t *testing.T) {
	t.Parallel()

	_, err := newTestExec().Execute(context.Background(), "moray-no-such-tool")
	if !errors.Is(err, morayerr.ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
}
