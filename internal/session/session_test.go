package session

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func quietLog() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := make([]byte, size)
	for i := range data {
		data[i] = 'x'
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExtractKey(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"KEY FOUND! [ Sunshine123 ]", "Sunshine123", true},
		{"      KEY FOUND! [ pass word ]   ", "pass word", true},
		{"[00:00:01] KEY FOUND! [abc12345]", "abc12345", true},
		{"KEY FOUND! [   ]", "", false},
		{"KEY FOUND! no brackets", "", false},
		{"KEY FOUND! [ unterminated", "", false},
		{"Current passphrase: [ guess ]", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractKey(tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractKey(%q) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractBSSID(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"plain", "Opening capture\nBSSID aa:bb:cc:dd:ee:ff\n", "AA:BB:CC:DD:EE:FF"},
		{"indented", "   BSSID   00:11:22:33:44:55  HomeNet\n", "00:11:22:33:44:55"},
		{"header only", "   #  BSSID              ESSID\n", ""},
		{"bad address", "BSSID zz:bb:cc:dd:ee:ff\n", ""},
		{"short address", "BSSID aa:bb:cc:dd:ee\n", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBSSID(tt.out); got != tt.want {
				t.Fatalf("ExtractBSSID = %q, want %q", got, tt.want)
			}
		})
	}
}
