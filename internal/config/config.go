package config

import (
	"fmt"
	"time"

	"bytemomo/moray/internal/analyzer"
	"bytemomo/moray/internal/domain"
	"bytemomo/moray/internal/session"

	"github.com/sirupsen/logrus"
)

// Config is the complete configuration of an assessment run.
type Config struct {
	Interface string       `yaml:"interface" json:"interface"`
	Target    TargetOpts   `yaml:"target" json:"target"`
	Attack    AttackOpts   `yaml:"attack" json:"attack"`
	Capture   CaptureOpts  `yaml:"capture" json:"capture"`
	Wordlist  WordlistOpts `yaml:"wordlist" json:"wordlist"`
	Tools     ToolOpts     `yaml:"tools" json:"tools"`
	Report    ReportOpts   `yaml:"report" json:"report"`
	Log       LogOpts      `yaml:"log" json:"log"`
	Metrics   MetricsOpts  `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// TargetOpts identifies the access point under assessment
type TargetOpts struct {
	SSID     string `yaml:"ssid" json:"ssid"`
	BSSID    string `yaml:"bssid" json:"bssid"`
	Channel  int    `yaml:"channel" json:"channel"`
	Client   string `yaml:"client,omitempty" json:"client,omitempty"`
	Security string `yaml:"security,omitempty" json:"security,omitempty"` // OPEN, WEP, WPA, WPA2, WPA3
	Signal   *int   `yaml:"signal,omitempty" json:"signal,omitempty"`     // 0-100, unset when unknown
}

// AttackOpts controls the capture/deauthentication phase
type AttackOpts struct {
	DeauthDuration time.Duration `yaml:"deauth_duration" json:"deauth_duration"`
	BurstInterval  time.Duration `yaml:"burst_interval" json:"burst_interval"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
	PollAttempts   int           `yaml:"poll_attempts" json:"poll_attempts"`
}

// CaptureOpts controls where captures go and how they are inspected
type CaptureOpts struct {
	Dir          string `yaml:"dir" json:"dir"`
	MinSize      int64  `yaml:"min_size" json:"min_size"`
	FrameCounter string `yaml:"frame_counter" json:"frame_counter"` // tshark, pcap
}

// WordlistOpts controls candidate materialization
type WordlistOpts struct {
	Path string `yaml:"path" json:"path"`
	Size int    `yaml:"size" json:"size"`
}

// ToolOpts names the external binaries
type ToolOpts struct {
	Capture string `yaml:"capture" json:"capture"`
	Deauth  string `yaml:"deauth" json:"deauth"`
	Verify  string `yaml:"verify" json:"verify"`
	Inspect string `yaml:"inspect" json:"inspect"`
	Frames  string `yaml:"frames" json:"frames"`
}

// ReportOpts controls the JSON report
type ReportOpts struct {
	Dir        string `yaml:"dir" json:"dir"`
	IncludeKey bool   `yaml:"include_key" json:"include_key"`
}

// LogOpts defines logging configuration
type LogOpts struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty"` // debug, info, warn, error
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsOpts enables the Prometheus endpoint when Addr is set
type MetricsOpts struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Attack.PollAttempts <= 0 {
		return ErrInvalid("attack.poll_attempts", "must be positive")
	}
	if c.Attack.PollInterval <= 0 {
		return ErrInvalid("attack.poll_interval", "must be positive")
	}
	if c.Attack.DeauthDuration < 0 {
		return ErrInvalid("attack.deauth_duration", "must not be negative")
	}
	if c.Attack.BurstInterval <= 0 {
		return ErrInvalid("attack.burst_interval", "must be positive")
	}
	if c.Capture.Dir == "" {
		return ErrInvalid("capture.dir", "is required")
	}
	if c.Capture.MinSize < 0 {
		return ErrInvalid("capture.min_size", "must not be negative")
	}
	switch c.Capture.FrameCounter {
	case session.CounterTshark, session.CounterPcap:
	default:
		return ErrInvalid("capture.frame_counter", fmt.Sprintf("unknown counter %q, want 'tshark' or 'pcap'", c.Capture.FrameCounter))
	}
	if c.Wordlist.Path == "" {
		return ErrInvalid("wordlist.path", "is required")
	}
	if c.Wordlist.Size <= 0 {
		return ErrInvalid("wordlist.size", "must be positive")
	}
	for field, tool := range map[string]string{
		"tools.capture": c.Tools.Capture,
		"tools.deauth":  c.Tools.Deauth,
		"tools.verify":  c.Tools.Verify,
		"tools.inspect": c.Tools.Inspect,
	} {
		if tool == "" {
			return ErrInvalid(field, "is required")
		}
	}
	if c.Capture.FrameCounter == session.CounterTshark && c.Tools.Frames == "" {
		return ErrInvalid("tools.frames", "is required by the tshark frame counter")
	}
	if s := c.Target.Signal; s != nil && (*s < 0 || *s > 100) {
		return ErrInvalid("target.signal", "must be within 0-100")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return ErrInvalid("log.level", err.Error())
	}
	return nil
}

// BuildTarget validates the target section against the interface.
func (c *Config) BuildTarget() (domain.Target, error) {
	t, err := domain.ParseTarget(c.Target.SSID, c.Target.BSSID, c.Target.Channel, c.Interface, c.Target.Client)
	if err != nil {
		return domain.Target{}, ErrInvalid("target", err.Error())
	}
	if c.Target.Security != "" {
		t.Security = analyzer.SecurityFromEncryption(c.Target.Security)
	}
	if c.Target.Signal != nil {
		t.Signal = *c.Target.Signal
		t.SignalKnown = true
	}
	return t, nil
}

// RequiredTools lists the binaries a run needs on PATH.
func (c *Config) RequiredTools() []string {
	tools := []string{c.Tools.Capture, c.Tools.Deauth, c.Tools.Verify}
	if c.Tools.Inspect != c.Tools.Verify {
		tools = append(tools, c.Tools.Inspect)
	}
	if c.Capture.FrameCounter == session.CounterTshark {
		tools = append(tools, c.Tools.Frames)
	}
	return tools
}

// ConfigError reports an invalid configuration field
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func ErrInvalid(field, msg string) error {
	return ConfigError{Field: field, Message: msg}
}
