package analyzer

import (
	"strings"

	"bytemomo/moray/internal/domain"
)

var (
	defaultSSIDPatterns = []string{
		"linksys", "netgear", "dlink", "tp-link", "asus",
		"belkin", "cisco", "arris", "default", "wireless",
		"router", "modem",
	}

	sensitiveSSIDPatterns = []string{
		"admin", "password", "security", "wifi", "internet",
		"company", "corp", "inc", "office", "home",
	}
)

// DefaultRules returns the built-in posture rules
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:           "weak-encryption",
			Score:          80,
			Vulnerability:  "Weak encryption",
			Recommendation: "Upgrade to WPA2/WPA3",
			Match:          securityIs(SecurityOpen, SecurityWEP),
		},
		{
			Name:           "deprecated-wpa",
			Score:          60,
			Vulnerability:  "Deprecated WPA encryption",
			Recommendation: "Upgrade to WPA2/WPA3",
			Match:          securityIs(SecurityWPA),
		},
		{
			Name:           "wpa2-krack",
			Score:          30,
			Vulnerability:  "Potential KRACK vulnerability",
			Recommendation: "Consider WPA3 upgrade",
			Match:          securityIs(SecurityWPA2),
		},
		{
			Name:           "wpa3",
			Score:          10,
			Recommendation: "Good security practice",
			Match:          securityIs(SecurityWPA3),
		},
		{
			Name:           "strong-signal",
			Score:          5,
			Recommendation: "Consider reducing transmit power",
			Match:          func(t domain.Target) bool { return t.SignalKnown && t.Signal > 80 },
		},
		{
			Name:          "weak-signal",
			Score:         20,
			Vulnerability: "Weak signal may indicate distance issues",
			Match:         func(t domain.Target) bool { return t.SignalKnown && t.Signal < 20 },
		},
		{
			Name:  "crowded-band",
			Score: 5,
			Match: func(t domain.Target) bool { return t.Channel >= 1 && t.Channel <= 11 },
		},
		{
			Name:           "default-ssid",
			Score:          25,
			Vulnerability:  "Default SSID detected",
			Recommendation: "Change default SSID",
			Match:          ssidContains(defaultSSIDPatterns),
		},
		{
			Name:           "sensitive-ssid",
			Score:          30,
			Vulnerability:  "SSID contains sensitive information",
			Recommendation: "Change SSID to remove sensitive info",
			Match:          ssidContains(sensitiveSSIDPatterns),
		},
	}
}

func securityIs(types ...string) func(domain.Target) bool {
	return func(t domain.Target) bool {
		sec := strings.ToUpper(strings.TrimSpace(t.Security))
		for _, s := range types {
			if sec == s {
				return true
			}
		}
		return false
	}
}

func ssidContains(patterns []string) func(domain.Target) bool {
	return func(t domain.Target) bool {
		ssid := strings.ToLower(t.Name)
		for _, p := range patterns {
			if strings.Contains(ssid, p) {
				return true
			}
		}
		return false
	}
}
