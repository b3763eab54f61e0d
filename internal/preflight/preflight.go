// Package preflight checks the host before an attack: privileges, tool
// availability and the operator's authorization.
package preflight

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Phrase is the exact confirmation the operator must type.
const Phrase = "AUTHORIZED TESTING"

// ErrNotAuthorized is returned when the operator declines the legal notice.
var ErrNotAuthorized = errors.New("authorization not confirmed")

const notice = `LEGAL DISCLAIMER
This tool is for authorized security testing only.
Accessing wireless networks without permission is illegal.

Permitted uses:
  - testing networks you own
  - penetration tests with written permission
  - security awareness training

Type '` + Phrase + `' to continue: `

// IsPrivileged reports whether the process runs with an effective uid of 0.
func IsPrivileged() bool {
	return os.Geteuid() == 0
}

// LookPathFunc resolves a binary name; exec.LookPath in production.
type LookPathFunc func(file string) (string, error)

// CheckTools returns the names that lookPath cannot resolve, in order.
// A nil lookPath uses exec.LookPath.
func CheckTools(lookPath LookPathFunc, names ...string) []string {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	var missing []string
	for _, name := range names {
		if _, err := lookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Confirm prints the legal notice to w and reads one line from r. Only the
// exact phrase, surrounding whitespace aside, authorizes the run.
func Confirm(r io.Reader, w io.Writer) error {
	if _, err := fmt.Fprint(w, notice); err != nil {
		return err
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(line) != Phrase {
		return ErrNotAuthorized
	}
	return nil
}
