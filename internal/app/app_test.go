package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/cache"
	"github.com/hyperifyio/goprofile/internal/health"
)

const (
	testProfileURL = "https://www.linkedin.com/in/alex/"
	topCardPage    = `<html><body><main>
<section class="artdeco-card" data-member-id="7">
  <h1>Alex Doe</h1><p>Founder at Acme</p><p>Austin, Texas</p>
</section>
<section><div><h2>Experience</h2></div><ul><li><img src="logo.png"></li></ul></section>
</main></body></html>`
)

func writePages(t *testing.T, pages map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range pages {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readDocument(t *testing.T, path string) Document {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return doc
}

func TestRun_SavedPagesWritesOutputManifestAndMetrics(t *testing.T) {
	pagesDir := writePages(t, map[string]string{
		"index.html":           topCardPage,
		"details/patents.html": `<html><body><main><p>Nothing to see for now</p></main></body></html>`,
	})
	tmp := t.TempDir()
	out := filepath.Join(tmp, "out", "alex.json")
	metrics := filepath.Join(tmp, "goprofile.prom")

	a, err := New(context.Background(), Config{
		ProfileURL:  testProfileURL,
		PagesDir:    pagesDir,
		OutputPath:  out,
		Sections:    []string{"top-card", "patents"},
		MetricsFile: metrics,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	doc := readDocument(t, out)
	if doc.RunID == "" || doc.Person.Name != "Alex Doe" || doc.Person.URL != testProfileURL {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(doc.Sections) != 2 || doc.Sections[0].Section != "top-card" {
		t.Fatalf("unexpected sections %+v", doc.Sections)
	}
	if doc.Sections[0].Health.Status == health.Broken || doc.Sections[1].Health.Status != health.Broken {
		t.Fatalf("unexpected statuses %+v", doc.Sections)
	}

	mb, err := os.ReadFile(deriveManifestSidecarPath(out))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m struct {
		Meta     manifestMeta    `json:"meta"`
		Pages    []manifestPage  `json:"pages"`
		Sections []health.Report `json:"sections"`
	}
	if err := json.Unmarshal(mb, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Meta.RunID != doc.RunID || m.Meta.PageSource != "dir" || len(m.Sections) != 2 {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if len(m.Pages) == 0 || m.Pages[0].URL != testProfileURL || m.Pages[0].SHA256 != computeSHA256Hex([]byte(topCardPage)) {
		t.Fatalf("unexpected manifest pages %+v", m.Pages)
	}

	prom, err := os.ReadFile(metrics)
	if err != nil || !strings.Contains(string(prom), "goprofile_section_items") {
		t.Fatalf("expected metrics textfile, got %q (%v)", prom, err)
	}
	if n, err := testutil.GatherAndCount(a.Recorder().Registry(), "goprofile_section_items"); err != nil || n != 2 {
		t.Fatalf("expected 2 item gauges, got %d (%v)", n, err)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Section-level log lines from the scrape layers carry the run id.
func TestRun_SectionLogsCarryRunID(t *testing.T) {
	var logs lockedBuffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&logs)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	pagesDir := writePages(t, map[string]string{"index.html": topCardPage})
	out := filepath.Join(t.TempDir(), "alex.json")
	a, err := New(context.Background(), Config{ProfileURL: testProfileURL, PagesDir: pagesDir, OutputPath: out, Sections: []string{"top-card"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	doc := readDocument(t, out)

	seen := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if _, ok := entry["section"]; !ok {
			continue
		}
		if entry["run"] != doc.RunID {
			t.Fatalf("section log line without run id %q: %s", doc.RunID, line)
		}
		if msg, _ := entry["message"].(string); msg != "" {
			seen[msg] = true
		}
	}
	for _, want := range []string{"regions located", "strategy attempt", "pipeline finished"} {
		if !seen[want] {
			t.Fatalf("missing %q log line in:\n%s", want, logs.String())
		}
	}
}

func TestRun_NoUsableSections(t *testing.T) {
	pagesDir := writePages(t, map[string]string{
		"index.html":           topCardPage,
		"details/patents.html": `<html><body><main><p>Nothing to see for now</p></main></body></html>`,
	})
	out := filepath.Join(t.TempDir(), "alex.json")
	a, err := New(context.Background(), Config{ProfileURL: testProfileURL, PagesDir: pagesDir, OutputPath: out, Sections: []string{"patents"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background()); !errors.Is(err, ErrNoSections) {
		t.Fatalf("expected ErrNoSections, got %v", err)
	}
	if doc := readDocument(t, out); len(doc.Sections) != 1 {
		t.Fatalf("output must still be written, got %+v", doc)
	}
}

func TestRun_MissingProfilePage(t *testing.T) {
	a, err := New(context.Background(), Config{ProfileURL: testProfileURL, PagesDir: t.TempDir(), OutputPath: filepath.Join(t.TempDir(), "x.json")})
	if err != nil {
		t.Fatal(err)
	}
	err = a.Run(context.Background())
	if err == nil || errors.Is(err, ErrNoSections) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestRun_StdoutOutput(t *testing.T) {
	pagesDir := writePages(t, map[string]string{"index.html": topCardPage})
	a, err := New(context.Background(), Config{ProfileURL: testProfileURL, PagesDir: pagesDir, OutputPath: StdoutPath, Sections: []string{"top-card"}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	a.stdout = &buf
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "Alex Doe"`) {
		t.Fatalf("expected document on stdout, got %s", buf.String())
	}
	if _, err := os.Stat(deriveManifestSidecarPath(StdoutPath)); !os.IsNotExist(err) {
		t.Fatalf("no manifest expected for stdout output")
	}
}

// Fetching over HTTP caches the page, answers revalidation from the cache and
// keeps a failure sample for the broken section.
func TestRun_HTTPWithPageCacheAndSamples(t *testing.T) {
	var full, revalidated int32
	mux := http.NewServeMux()
	mux.HandleFunc("/in/alex/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "li_at=secret" {
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		w.Header().Set("ETag", `"p1"`)
		if r.Header.Get("If-None-Match") == `"p1"` {
			atomic.AddInt32(&revalidated, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		atomic.AddInt32(&full, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(topCardPage))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cacheDir := t.TempDir()
	cfg := Config{
		ProfileURL:    ts.URL + "/in/alex/",
		OutputPath:    filepath.Join(t.TempDir(), "alex.json"),
		Sections:      []string{"top-card", "experience"},
		SessionCookie: "li_at=secret",
		UserAgent:     "goprofile-test/1.0",
		CacheDir:      cacheDir,
		CaptureHTML:   true,
		MaxAttempts:   1,
	}
	for i := 0; i < 2; i++ {
		a, err := New(context.Background(), cfg)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if doc := readDocument(t, cfg.OutputPath); doc.Person.Name != "Alex Doe" {
			t.Fatalf("run %d: unexpected person %+v", i, doc.Person)
		}
	}
	if atomic.LoadInt32(&full) != 1 || atomic.LoadInt32(&revalidated) != 1 {
		t.Fatalf("expected one full fetch and one revalidation, got %d/%d", full, revalidated)
	}
	samples, err := os.ReadDir(filepath.Join(cacheDir, cache.SamplesDir))
	if err != nil || len(samples) == 0 {
		t.Fatalf("expected failure samples, got %v (%v)", samples, err)
	}
	if !strings.HasPrefix(samples[0].Name(), "experience-") {
		t.Fatalf("unexpected sample name %s", samples[0].Name())
	}
}

func TestNew_BadSelectorsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(p, []byte("sections:\n  skills:\n    roots: [main]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(context.Background(), Config{SelectorsFile: p}); err == nil {
		t.Fatalf("expected error for a new section without kind")
	}
}
