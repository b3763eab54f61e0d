// Package session drives the external wireless tools. Each session owns at
// most one live process and exposes Start/Stop/IsRunning style lifecycles.
package session

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"bytemomo/moray/internal/morayerr"

	log "github.com/sirupsen/logrus"
)

// Default tool names. Sessions expose them as fields so configuration can
// point at other binaries.
const (
	DefaultCaptureTool = "airodump-ng"
	DefaultDeauthTool  = "aireplay-ng"
	DefaultVerifyTool  = "aircrack-ng"
	DefaultFramesTool  = "tshark"
)

const (
	handshakeMarker = "WPA handshake"
	keyMarker       = "KEY FOUND"
)

func entry(l *log.Entry, name string) *log.Entry {
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}
	return l.WithField("session", name)
}

// requireFile fails with ErrMissingInput when path is absent or empty.
func requireFile(op, what, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return morayerr.E(op, morayerr.ErrMissingInput, what+" "+path, err)
	}
	if fi.IsDir() || fi.Size() == 0 {
		return morayerr.E(op, morayerr.ErrMissingInput, fmt.Sprintf("%s %s is empty", what, path), nil)
	}
	return nil
}

// ExtractBSSID returns the access point address reported on a "BSSID <addr>"
// line of the inspection output, upper-cased, or "" when there is none.
func ExtractBSSID(output string) string {
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] != "BSSID" {
				continue
			}
			addr := fields[i+1]
			if len(addr) != 17 || strings.Count(addr, ":") != 5 {
				continue
			}
			if _, err := net.ParseMAC(addr); err == nil {
				return strings.ToUpper(addr)
			}
		}
	}
	return ""
}

// ExtractKey returns the credential of a "KEY FOUND! [ key ]" line: the
// trimmed text between the first '[' after the marker and the next ']'.
func ExtractKey(line string) (string, bool) {
	i := strings.Index(line, keyMarker)
	if i < 0 {
		return "", false
	}
	rest := line[i+len(keyMarker):]
	open := strings.IndexByte(rest, '[')
	if open < 0 {
		return "", false
	}
	rest = rest[open+1:]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return "", false
	}
	key := strings.TrimSpace(rest[:end])
	return key, key != ""
}
