package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hyperifyio/goprofile/internal/health"
)

// manifestPage is a compact record of a single page read during a run.
type manifestPage struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
}

// manifestMeta captures high-level run details that aid reproducibility.
type manifestMeta struct {
	RunID         string    `json:"run_id"`
	ProfileURL    string    `json:"profile_url"`
	PageSource    string    `json:"page_source"`
	SelectorsFile string    `json:"selectors_file,omitempty"`
	PageCache     bool      `json:"page_cache"`
	Version       string    `json:"version"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of b.
func computeSHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// marshalManifestJSON encodes a machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, pages []manifestPage, reports []health.Report) ([]byte, error) {
	if pages == nil {
		pages = []manifestPage{}
	}
	if reports == nil {
		reports = []health.Report{}
	}
	payload := struct {
		Meta     manifestMeta    `json:"meta"`
		Pages    []manifestPage  `json:"pages"`
		Sections []health.Report `json:"sections"`
	}{Meta: meta, Pages: pages, Sections: reports}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
