// Package pipeline runs extraction strategies in priority order against one
// set of regions and keeps the first result that is good enough.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/dedupe"
	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/parse"
)

const (
	// DefaultThreshold accepts any strategy that reliably yields minimally
	// valid entities.
	DefaultThreshold = 0.3
	// DefaultSampleLimit bounds the failure HTML snapshot in bytes.
	DefaultSampleLimit = 8192
	// NoExtractor is reported when no strategy produced an item.
	NoExtractor = "none"
)

// Options configure a Pipeline.
type Options struct {
	// Section names the pipeline in logs.
	Section             string
	ConfidenceThreshold float64
	// CaptureHTMLOnFailure stores a snapshot of the first region when no
	// strategy yields any item.
	CaptureHTMLOnFailure bool
	// AttemptTimeout bounds one strategy attempt. Zero means no extra bound.
	AttemptTimeout     time.Duration
	FailureSampleLimit int
}

// DefaultOptions returns the options used for profile sections.
func DefaultOptions(section string) Options {
	return Options{
		Section:              section,
		ConfidenceThreshold:  DefaultThreshold,
		CaptureHTMLOnFailure: true,
		AttemptTimeout:       30 * time.Second,
		FailureSampleLimit:   DefaultSampleLimit,
	}
}

// Attempt is the outcome of running one strategy.
type Attempt struct {
	Strategy      string  `json:"strategy"`
	Records       int     `json:"records"`
	Parsed        int     `json:"parsed"`
	AvgConfidence float64 `json:"avgConfidence"`
	Err           string  `json:"error,omitempty"`
}

type Diagnostics struct {
	AvgConfidence       float64   `json:"avgConfidence"`
	TextExtractorUsed   string    `json:"textExtractorUsed"`
	StrategiesAttempted []string  `json:"strategiesAttempted"`
	FailureHTMLSample   string    `json:"failureHtmlSample,omitempty"`
	Attempts            []Attempt `json:"attempts,omitempty"`
}

// Result is what a pipeline run produced. Strategy is empty exactly when
// Items is empty.
type Result[T any] struct {
	Items       []T         `json:"items"`
	Strategy    string      `json:"strategy,omitempty"`
	Confidence  float64     `json:"confidence"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Summary is a one-line description for logs.
func (r Result[T]) Summary() string {
	if len(r.Items) == 0 {
		return fmt.Sprintf("no items (attempted %s)", strings.Join(r.Diagnostics.StrategiesAttempted, ", "))
	}
	return fmt.Sprintf("%d items via %s (confidence %.2f)", len(r.Items), r.Strategy, r.Confidence)
}

// Pipeline pairs an ordered strategy list with one interpreter.
type Pipeline[T any] struct {
	strategies []extract.Strategy
	interp     parse.Interpreter[T]
	opts       Options
}

func New[T any](strategies []extract.Strategy, interp parse.Interpreter[T], opts Options) *Pipeline[T] {
	if opts.FailureSampleLimit <= 0 {
		opts.FailureSampleLimit = DefaultSampleLimit
	}
	return &Pipeline[T]{strategies: strategies, interp: interp, opts: opts}
}

type outcome[T any] struct {
	name    string
	records int
	items   []T
	confs   []float64
	avg     float64
	err     error
}

// Extract runs strategies in order. The first strategy whose average
// confidence reaches the threshold wins; otherwise the best average seen is
// returned, ties going to the earlier strategy. It never fails.
func (p *Pipeline[T]) Extract(ctx context.Context, d page.Driver, regions []page.TaggedRegion) Result[T] {
	res := Result[T]{Items: []T{}}
	res.Diagnostics.StrategiesAttempted = []string{}
	var best *outcome[T]
	for _, s := range p.strategies {
		if ctx.Err() != nil {
			break
		}
		out := p.attempt(ctx, s, d, regions)
		res.Diagnostics.StrategiesAttempted = append(res.Diagnostics.StrategiesAttempted, out.name)
		a := Attempt{Strategy: out.name, Records: out.records, Parsed: len(out.items), AvgConfidence: out.avg}
		if out.err != nil {
			a.Err = out.err.Error()
		}
		res.Diagnostics.Attempts = append(res.Diagnostics.Attempts, a)

		if best == nil || out.avg > best.avg {
			best = &out
		}
		if len(out.items) > 0 && out.avg >= p.opts.ConfidenceThreshold {
			break
		}
	}

	res.Diagnostics.TextExtractorUsed = NoExtractor
	if best != nil && len(best.items) > 0 {
		res.Items = best.items
		res.Strategy = best.name
		res.Confidence = mean(best.confs)
		res.Diagnostics.AvgConfidence = best.avg
		res.Diagnostics.TextExtractorUsed = best.name
	}
	if len(res.Items) == 0 && p.opts.CaptureHTMLOnFailure && len(regions) > 0 {
		res.Diagnostics.FailureHTMLSample = p.sample(ctx, d, regions[0].Region)
	}
	log.Ctx(ctx).Debug().Str("section", p.opts.Section).Str("result", res.Summary()).Msg("pipeline finished")
	return res
}

func (p *Pipeline[T]) attempt(ctx context.Context, s extract.Strategy, d page.Driver, regions []page.TaggedRegion) (out outcome[T]) {
	out.name = s.Name()
	if p.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.AttemptTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			out = outcome[T]{name: out.name, err: fmt.Errorf("strategy panic: %v", r)}
			log.Ctx(ctx).Warn().Str("section", p.opts.Section).Str("strategy", out.name).Err(out.err).Msg("strategy attempt failed")
		}
	}()

	records, err := s.Attempt(ctx, d, regions)
	if err != nil {
		out.err = err
		log.Ctx(ctx).Debug().Err(err).Str("section", p.opts.Section).Str("strategy", out.name).Msg("strategy attempt failed")
		return out
	}
	out.records = len(records)
	var sum float64
	for _, rec := range records {
		v, ok := p.interpret(ctx, rec)
		if !ok {
			continue
		}
		c := clamp(p.interp.Confidence(v))
		out.items = append(out.items, v)
		out.confs = append(out.confs, c)
		sum += c
	}
	if out.records > 0 {
		out.avg = sum / float64(out.records)
	}
	log.Ctx(ctx).Debug().
		Str("section", p.opts.Section).
		Str("strategy", out.name).
		Int("records", out.records).
		Int("items", len(out.items)).
		Float64("confidence", out.avg).
		Msg("strategy attempt")
	return out
}

// interpret parses and validates one record; a panicking interpreter counts
// as a rejection.
func (p *Pipeline[T]) interpret(ctx context.Context, rec extract.Record) (v T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Debug().Str("section", p.opts.Section).Interface("panic", r).Msg("record rejected")
			var zero T
			v, ok = zero, false
		}
	}()
	v, ok = p.interp.Parse(rec)
	if !ok || !p.interp.Validate(v) {
		var zero T
		return zero, false
	}
	return v, true
}

func (p *Pipeline[T]) sample(ctx context.Context, d page.Driver, r page.Region) string {
	if d == nil {
		return ""
	}
	html, err := d.HTML(ctx, r)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("section", p.opts.Section).Msg("failure sample unavailable")
		return ""
	}
	return truncate(html, p.opts.FailureSampleLimit)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

// Collect wraps items that were interpreted outside the strategy loop, such
// as contact dialog sections, into a Result.
func Collect[T any](source string, items []T, interp parse.Interpreter[T]) Result[T] {
	res := Result[T]{Items: []T{}}
	res.Diagnostics.StrategiesAttempted = []string{source}
	res.Diagnostics.TextExtractorUsed = NoExtractor
	var confs []float64
	var sum float64
	for _, it := range items {
		if !interp.Validate(it) {
			continue
		}
		c := clamp(interp.Confidence(it))
		res.Items = append(res.Items, it)
		confs = append(confs, c)
		sum += c
	}
	if len(res.Items) > 0 {
		res.Strategy = source
		res.Confidence = mean(confs)
		res.Diagnostics.AvgConfidence = sum / float64(len(items))
		res.Diagnostics.TextExtractorUsed = source
	}
	res.Diagnostics.Attempts = []Attempt{{Strategy: source, Records: len(items), Parsed: len(res.Items), AvgConfidence: res.Diagnostics.AvgConfidence}}
	return res
}

// Deduplicate drops items whose key was already seen, keeping the first, and
// recomputes the item confidence mean over what remains.
func Deduplicate[T any, K comparable](res Result[T], interp parse.Interpreter[T], key func(T) K) Result[T] {
	kept := dedupe.Items(res.Items, key)
	if len(kept) == len(res.Items) {
		return res
	}
	confs := make([]float64, 0, len(kept))
	for _, it := range kept {
		confs = append(confs, clamp(interp.Confidence(it)))
	}
	res.Items = kept
	res.Confidence = mean(confs)
	return res
}
