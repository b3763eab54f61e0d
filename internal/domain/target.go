package domain

import (
	"fmt"
	"net"
	"strings"
)

// Channel bounds accepted for a target (2.4, 5 and 6 GHz numbering).
const (
	MinChannel = 1
	MaxChannel = 196
)

// Target is the access point under assessment. It is passed by value and
// never mutated once an attack starts.
type Target struct {
	Name      string
	BSSID     net.HardwareAddr
	Channel   int
	Interface string

	// Client narrows deauthentication to one station. Nil means broadcast.
	Client net.HardwareAddr

	// Security and Signal are informational, used for posture scoring only.
	// Signal is meaningful only when SignalKnown is set.
	Security    string
	Signal      int
	SignalKnown bool
}

// ParseTarget builds a Target from its textual form and validates it.
func ParseTarget(name, bssid string, channel int, iface, client string) (Target, error) {
	t := Target{Name: name, Channel: channel, Interface: iface}

	hw, err := parseMAC(bssid)
	if err != nil {
		return Target{}, fmt.Errorf("bssid %q: %w", bssid, err)
	}
	t.BSSID = hw

	if client != "" {
		c, err := parseMAC(client)
		if err != nil {
			return Target{}, fmt.Errorf("client %q: %w", client, err)
		}
		t.Client = c
	}

	if err := t.Validate(); err != nil {
		return Target{}, err
	}
	return t, nil
}

func parseMAC(s string) (net.HardwareAddr, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("expected a 6-byte hardware address, got %d bytes", len(hw))
	}
	return hw, nil
}

// Validate checks the invariants of a target.
func (t Target) Validate() error {
	if len(t.BSSID) != 6 {
		return fmt.Errorf("target: bssid must be a 6-byte hardware address")
	}
	if t.Channel < MinChannel || t.Channel > MaxChannel {
		return fmt.Errorf("target: channel %d outside %d-%d", t.Channel, MinChannel, MaxChannel)
	}
	if t.Interface == "" {
		return fmt.Errorf("target: interface is required")
	}
	if t.Client != nil && len(t.Client) != 6 {
		return fmt.Errorf("target: client must be a 6-byte hardware address")
	}
	return nil
}

// FormatMAC renders a hardware address the way the aircrack-ng suite prints
// it: upper case, colon separated. A nil address renders empty.
func FormatMAC(hw net.HardwareAddr) string {
	if len(hw) == 0 {
		return ""
	}
	return strings.ToUpper(hw.String())
}

// BSSIDString returns the access point address in tool form.
func (t Target) BSSIDString() string { return FormatMAC(t.BSSID) }

// ClientString returns the station address in tool form, or "" for broadcast.
func (t Target) ClientString() string { return FormatMAC(t.Client) }

func (t Target) String() string {
	return fmt.Sprintf("%s (%s ch%d)", t.Name, t.BSSIDString(), t.Channel)
}

// Key returns a unique identifier for the target.
func (t Target) Key() string {
	return fmt.Sprintf("wlan:%s:%d", t.BSSIDString(), t.Channel)
}
