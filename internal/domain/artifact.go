package domain

// CaptureArtifact describes the capture file written by the passive capture
// tool. Only that tool mutates the file; everything else reads it.
type CaptureArtifact struct {
	Path     string `json:"path"`
	Size     int64  `json:"size_bytes"`
	Verified bool   `json:"verified"`
}
