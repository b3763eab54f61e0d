package morayerr

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	// ErrSpawn means a tool could not be located or started. Fatal to the session.
	ErrSpawn = errors.New("spawn failed")
	// ErrMissingInput means a precondition file is absent or empty.
	ErrMissingInput = errors.New("missing input")
	// ErrAbnormalExit means a process exited non-zero without a recognized marker.
	ErrAbnormalExit = errors.New("abnormal process exit")
	// ErrWorkerFault means a background worker failed and was shut down.
	ErrWorkerFault = errors.New("worker fault")
	// ErrNoBSSID means the capture inspection did not report an access point address.
	ErrNoBSSID = errors.New("bssid not found in capture")
)

// Error captures contextual information for session failures.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
}

func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// E constructs an Error with the provided context.
func E(op string, kind error, msg string, err error) error {
	return &Error{Op: op, Kind: kind, Msg: msg, Err: err}
}

// Exit constructs an ErrAbnormalExit error carrying the exit code.
func Exit(op string, code int, err error) error {
	return &Error{Op: op, Kind: ErrAbnormalExit, Msg: fmt.Sprintf("exit status %d", code), Code: code, Err: err}
}

// IsFatal reports whether err must abort the attack instead of being
// treated as an expected absence of success.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSpawn)
}

// ExitCode returns the exit code carried by err, or -1.
func ExitCode(err error) int {
	var e *Error
	if errors.As(err, &e) && errors.Is(e.Kind, ErrAbnormalExit) {
		return e.Code
	}
	return -1
}
