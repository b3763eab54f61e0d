package jsonreport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bytemomo/moray/internal/analyzer"
	"bytemomo/moray/internal/usecase"
)

const redacted = "[REDACTED]"

type Writer struct {
	OutDir     string // e.g., ./reports
	IncludeKey bool
}

func New(out string, includeKey bool) *Writer { return &Writer{OutDir: out, IncludeKey: includeKey} }

// Document is the on-disk layout of a report
type Document struct {
	Version  string                `json:"version"`
	Analysis analyzer.Report       `json:"analysis"`
	Attack   *usecase.AttackResult `json:"attack,omitempty"`
}

// Save writes the posture report and the attack outcome, returning the path.
// The credential is redacted unless IncludeKey is set.
func (w *Writer) Save(report analyzer.Report, res *usecase.AttackResult) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("security_analysis_%s_%s.json",
		SafeName(report.SSID), report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(w.OutDir, name)

	doc := Document{Version: "1.0", Analysis: report}
	if res != nil {
		attack := *res
		if attack.Credential != "" && !w.IncludeKey {
			attack.Credential = redacted
		}
		doc.Attack = &attack
	}
	return path, writeJSON(path, doc)
}

// SafeName replaces every byte that is not an ASCII letter, digit, '-' or
// '_' with '_'.
func SafeName(s string) string {
	if s == "" {
		return "unnamed"
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func writeJSON(path string, v any) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
