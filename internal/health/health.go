// Package health maps pipeline results to operational verdicts.
package health

import (
	"fmt"

	"github.com/hyperifyio/goprofile/internal/pipeline"
)

type Status string

const (
	Healthy  Status = "healthy"
	Degraded Status = "degraded"
	Broken   Status = "broken"
)

// Thresholds are the minimum confidences for healthy and degraded.
type Thresholds struct {
	Healthy  float64 `yaml:"healthy" json:"healthy"`
	Degraded float64 `yaml:"degraded" json:"degraded"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Healthy: 0.65, Degraded: 0.35}
}

// Report is a per-run projection of one section's extraction.
type Report struct {
	Section           string  `json:"section"`
	Status            Status  `json:"status"`
	TextExtractorUsed string  `json:"textExtractorUsed"`
	Confidence        float64 `json:"confidence"`
	ItemCount         int     `json:"itemCount"`
	Message           string  `json:"message"`
}

// Build classifies a section from its item count and aggregate confidence.
func Build(section, extractor string, itemCount int, confidence float64, th Thresholds) Report {
	r := Report{
		Section:           section,
		TextExtractorUsed: extractor,
		Confidence:        confidence,
		ItemCount:         itemCount,
	}
	switch {
	case itemCount == 0 || confidence <= 0:
		r.Status = Broken
	case confidence >= th.Healthy:
		r.Status = Healthy
	case confidence >= th.Degraded:
		r.Status = Degraded
	default:
		r.Status = Broken
	}
	if r.Status == Healthy {
		r.Message = fmt.Sprintf("%s extraction healthy using %s", section, extractor)
	} else {
		r.Message = fmt.Sprintf("%s extraction %s using %s: %d items, confidence %.2f", section, r.Status, extractor, itemCount, confidence)
	}
	return r
}

// Of reports on a pipeline result using its average confidence.
func Of[T any](section string, res pipeline.Result[T], th Thresholds) Report {
	return Build(section, res.Diagnostics.TextExtractorUsed, len(res.Items), res.Diagnostics.AvgConfidence, th)
}
