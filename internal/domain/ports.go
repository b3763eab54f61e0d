package domain

import (
	"context"
	"time"
)

// CaptureSession owns the passive capture process for one target.
type CaptureSession interface {
	Start(iface string, t Target) error
	CheckComplete(ctx context.Context) bool
	Stop()
	ArtifactPath() string
	IsRunning() bool
}

// DeauthSession owns the burst-sending worker. Failures inside the worker are
// logged and never returned.
type DeauthSession interface {
	Start(iface, bssid, client string, duration time.Duration)
	Stop()
	IsRunning() bool
}

// VerificationSession runs the verification oracle against a capture.
// It returns the matched credential, or "" when none matched.
type VerificationSession interface {
	Run(ctx context.Context, capFile, wordlist, targetName string) (string, error)
	Stop()
	IsRunning() bool
}

// WordlistBuilder materializes candidates for a target into a file and
// returns how many lines were written.
type WordlistBuilder interface {
	Build(path, seed string) (int, error)
}
