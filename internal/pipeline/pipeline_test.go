package pipeline

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/parse"
	"github.com/hyperifyio/goprofile/internal/profile"
)

type stubStrategy struct {
	name  string
	recs  []extract.Record
	err   error
	panic bool
	block bool
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(ctx context.Context, _ page.Driver, _ []page.TaggedRegion) ([]extract.Record, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.recs, s.err
}

func rec(lines ...string) extract.Record { return extract.Record{Texts: lines} }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func run(t *testing.T, threshold float64, strategies ...*stubStrategy) Result[profile.TopCard] {
	t.Helper()
	list := make([]extract.Strategy, 0, len(strategies))
	for _, s := range strategies {
		list = append(list, s)
	}
	p := New[profile.TopCard](list, parse.TopCardInterpreter{}, Options{ConfidenceThreshold: threshold})
	return p.Extract(context.Background(), nil, nil)
}

func TestExtract_EarlyAcceptSkipsLaterStrategies(t *testing.T) {
	a := &stubStrategy{name: "a", recs: []extract.Record{rec("Alex", "Founder", "Austin")}}
	b := &stubStrategy{name: "b", recs: []extract.Record{rec("Bob")}}
	res := run(t, 0.3, a, b)
	if b.calls != 0 {
		t.Fatalf("later strategy invoked %d times", b.calls)
	}
	if res.Strategy != "a" || len(res.Items) != 1 || !near(res.Confidence, 1) {
		t.Fatalf("unexpected result %+v", res)
	}
	if !reflect.DeepEqual(res.Diagnostics.StrategiesAttempted, []string{"a"}) {
		t.Fatalf("unexpected attempted list %v", res.Diagnostics.StrategiesAttempted)
	}
}

func TestExtract_FallsBackWhenNothingParses(t *testing.T) {
	a := &stubStrategy{name: "a", recs: []extract.Record{{}, {}}}
	b := &stubStrategy{name: "b", recs: []extract.Record{rec("Bob", "Head")}}
	res := run(t, 0.3, a, b)
	if res.Strategy != "b" || res.Diagnostics.TextExtractorUsed != "b" {
		t.Fatalf("expected fallback to b, got %+v", res)
	}
	if !reflect.DeepEqual(res.Diagnostics.StrategiesAttempted, []string{"a", "b"}) {
		t.Fatalf("unexpected attempted list %v", res.Diagnostics.StrategiesAttempted)
	}
}

func TestExtract_BestOfWhenThresholdNeverReached(t *testing.T) {
	a := &stubStrategy{name: "a", recs: []extract.Record{rec("Alex")}}
	b := &stubStrategy{name: "b", recs: []extract.Record{rec("Bob", "Head")}}
	c := &stubStrategy{name: "c", recs: []extract.Record{rec("Carl", "h", "o"), {}}}
	res := run(t, 0.9, a, b, c)
	if res.Strategy != "b" || !near(res.Diagnostics.AvgConfidence, 0.75) {
		t.Fatalf("expected b to win, got %+v", res)
	}
	if len(res.Diagnostics.StrategiesAttempted) != 3 {
		t.Fatalf("expected all strategies attempted, got %v", res.Diagnostics.StrategiesAttempted)
	}
}

func TestExtract_TieGoesToEarlierStrategy(t *testing.T) {
	a := &stubStrategy{name: "a", recs: []extract.Record{rec("Alex")}}
	b := &stubStrategy{name: "b", recs: []extract.Record{rec("Bob")}}
	res := run(t, 0.9, a, b)
	if res.Strategy != "a" {
		t.Fatalf("expected tie to go to a, got %q", res.Strategy)
	}
}

func TestExtract_RejectionsLowerAverage(t *testing.T) {
	a := &stubStrategy{name: "a", recs: []extract.Record{rec("Alex", "h", "o"), {}, {}, {}}}
	res := run(t, 0.3, a)
	if !near(res.Diagnostics.AvgConfidence, 0.25) {
		t.Fatalf("expected avg 0.25, got %v", res.Diagnostics.AvgConfidence)
	}
	if !near(res.Confidence, 1) || len(res.Items) != 1 {
		t.Fatalf("expected item confidence 1, got %+v", res)
	}
}

func TestExtract_ErrorsAndPanicsAreFailedAttempts(t *testing.T) {
	a := &stubStrategy{name: "a", err: errors.New("lookup failed")}
	b := &stubStrategy{name: "b", panic: true}
	c := &stubStrategy{name: "c", recs: []extract.Record{rec("Carl", "h")}}
	res := run(t, 0.3, a, b, c)
	if res.Strategy != "c" {
		t.Fatalf("expected c to win, got %+v", res)
	}
	att := res.Diagnostics.Attempts
	if len(att) != 3 || att[0].Err == "" || !strings.Contains(att[1].Err, "panic") || att[2].Err != "" {
		t.Fatalf("unexpected attempts %+v", att)
	}
}

func TestExtract_AttemptTimeout(t *testing.T) {
	a := &stubStrategy{name: "a", block: true}
	b := &stubStrategy{name: "b", recs: []extract.Record{rec("Bob")}}
	p := New[profile.TopCard]([]extract.Strategy{a, b}, parse.TopCardInterpreter{}, Options{
		ConfidenceThreshold: 0.3,
		AttemptTimeout:      20 * time.Millisecond,
	})
	res := p.Extract(context.Background(), nil, nil)
	if res.Strategy != "b" {
		t.Fatalf("expected b after timeout, got %+v", res)
	}
	if !strings.Contains(res.Diagnostics.Attempts[0].Err, "deadline") {
		t.Fatalf("expected deadline error, got %+v", res.Diagnostics.Attempts[0])
	}
}

func TestExtract_EmptyResultInvariants(t *testing.T) {
	res := run(t, 0.3, &stubStrategy{name: "a"})
	if res.Strategy != "" || res.Confidence != 0 || len(res.Items) != 0 {
		t.Fatalf("unexpected empty result %+v", res)
	}
	if res.Diagnostics.TextExtractorUsed != NoExtractor {
		t.Fatalf("expected %q, got %q", NoExtractor, res.Diagnostics.TextExtractorUsed)
	}
	if !strings.HasPrefix(res.Summary(), "no items") {
		t.Fatalf("unexpected summary %q", res.Summary())
	}
}

func TestExtract_CapturesFailureSample(t *testing.T) {
	d, err := page.FromHTML([]byte(`<ul><li class="x">nothing useful here</li></ul>`), "")
	if err != nil {
		t.Fatal(err)
	}
	regs, _ := d.Locate(context.Background(), "li.x")
	regions := []page.TaggedRegion{{Region: regs[0]}}
	p := New[profile.TopCard]([]extract.Strategy{&stubStrategy{name: "a"}}, parse.TopCardInterpreter{}, Options{
		ConfidenceThreshold:  0.3,
		CaptureHTMLOnFailure: true,
		FailureSampleLimit:   12,
	})
	res := p.Extract(context.Background(), d, regions)
	if res.Diagnostics.FailureHTMLSample != `<li class="x` {
		t.Fatalf("unexpected sample %q", res.Diagnostics.FailureHTMLSample)
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	if got := truncate("héllo", 2); got != "h" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestCollect(t *testing.T) {
	items := []profile.Contact{
		{Type: profile.ContactEmail, Value: "a@b.c", Label: "Work"},
		{Type: profile.ContactPhone, Value: "+1"},
		{Type: "fax", Value: "1"},
	}
	res := Collect("contact-dialog", items, parse.ContactInterpreter{})
	if len(res.Items) != 2 || res.Strategy != "contact-dialog" {
		t.Fatalf("unexpected %+v", res)
	}
	if !near(res.Confidence, 0.75) || !near(res.Diagnostics.AvgConfidence, 0.5) {
		t.Fatalf("unexpected confidence %v / %v", res.Confidence, res.Diagnostics.AvgConfidence)
	}
}

func TestDeduplicate_KeepsFirstAndRescores(t *testing.T) {
	res := Result[profile.Contact]{
		Items: []profile.Contact{
			{Type: profile.ContactEmail, Value: "a@b.c"},
			{Type: profile.ContactEmail, Value: "a@b.c", Label: "Work"},
			{Type: profile.ContactPhone, Value: "+1", Label: "Mobile"},
		},
		Strategy:   "aria",
		Confidence: 0.9,
	}
	out := Deduplicate(res, parse.ContactInterpreter{}, parse.ContactKey)
	if len(out.Items) != 2 || out.Items[0].Label != "" {
		t.Fatalf("unexpected items %+v", out.Items)
	}
	if !near(out.Confidence, 0.75) {
		t.Fatalf("expected rescored confidence 0.75, got %v", out.Confidence)
	}
	if same := Deduplicate(out, parse.ContactInterpreter{}, parse.ContactKey); !near(same.Confidence, out.Confidence) {
		t.Fatalf("deduplicating twice changed the result")
	}
}
