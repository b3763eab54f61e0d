// Package analyzer scores the security posture of a wireless network from
// its advertised properties.
package analyzer

import (
	"strings"
	"time"

	"bytemomo/moray/internal/domain"
)

// Risk levels
const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

// Security types
const (
	SecurityOpen    = "OPEN"
	SecurityWEP     = "WEP"
	SecurityWPA     = "WPA"
	SecurityWPA2    = "WPA2"
	SecurityWPA3    = "WPA3"
	SecurityUnknown = "UNKNOWN"
)

// Report is the posture assessment of one network
type Report struct {
	SSID            string    `json:"ssid"`
	BSSID           string    `json:"bssid"`
	Level           string    `json:"security_level"`
	Encryption      string    `json:"encryption"`
	Signal          *int      `json:"signal_strength,omitempty"`
	Channel         int       `json:"channel"`
	RiskScore       int       `json:"risk_score"`
	Vulnerabilities []string  `json:"vulnerabilities"`
	Recommendations []string  `json:"recommendations"`
	Rules           []string  `json:"matched_rules"`
	Timestamp       time.Time `json:"timestamp"`
}

// Rule adds Score to the risk of every target it matches
type Rule struct {
	Name           string
	Score          int
	Vulnerability  string
	Recommendation string
	Match          func(t domain.Target) bool
}

// Analyzer evaluates targets against an ordered rule set
type Analyzer struct {
	rules []Rule
	now   func() time.Time
}

// New creates an analyzer with the default rule set
func New() *Analyzer {
	return &Analyzer{rules: DefaultRules(), now: time.Now}
}

// NewWithRules creates an analyzer with a custom rule set
func NewWithRules(rules []Rule) *Analyzer {
	return &Analyzer{rules: rules, now: time.Now}
}

// Analyze scores t and collects the findings of every matching rule
func (a *Analyzer) Analyze(t domain.Target) Report {
	r := Report{
		SSID:            t.Name,
		BSSID:           t.BSSIDString(),
		Encryption:      t.Security,
		Channel:         t.Channel,
		Vulnerabilities: []string{},
		Recommendations: []string{},
		Rules:           []string{},
		Timestamp:       a.now(),
	}

	if t.SignalKnown {
		signal := t.Signal
		r.Signal = &signal
	}

	for _, rule := range a.rules {
		if !rule.Match(t) {
			continue
		}
		r.RiskScore += rule.Score
		r.Rules = append(r.Rules, rule.Name)
		if rule.Vulnerability != "" {
			r.Vulnerabilities = append(r.Vulnerabilities, rule.Vulnerability)
		}
		if rule.Recommendation != "" {
			r.Recommendations = append(r.Recommendations, rule.Recommendation)
		}
	}

	r.Level = LevelFor(r.RiskScore)
	return r
}

// LevelFor maps a risk score to its level
func LevelFor(score int) string {
	switch {
	case score >= 70:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

// SecurityFromEncryption normalizes a scanner's encryption column
func SecurityFromEncryption(enc string) string {
	e := strings.ToLower(enc)
	switch {
	case strings.Contains(e, "wpa3"):
		return SecurityWPA3
	case strings.Contains(e, "wpa2"):
		return SecurityWPA2
	case strings.Contains(e, "wpa"):
		return SecurityWPA
	case strings.Contains(e, "wep"):
		return SecurityWEP
	case strings.Contains(e, "open"), strings.Contains(e, "opn"):
		return SecurityOpen
	default:
		return SecurityUnknown
	}
}
