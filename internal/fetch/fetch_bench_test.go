package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperifyio/goprofile/internal/cache"
)

// Benchmark the Client under different concurrency caps, with and without
// the page cache answering 304s.
func BenchmarkClient_ConcurrencyAndRevalidation(b *testing.B) {
	mux := http.NewServeMux()
	mux.HandleFunc("/in/alex/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("ETag", `"v1"`)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte("<html><body><main><h1>Alex</h1></main></body></html>"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	runScenario := func(name string, maxConc int, useCache bool) {
		b.Run(name, func(b *testing.B) {
			cli := &Client{
				HTTPClient:        ts.Client(),
				UserAgent:         "bench/1",
				MaxAttempts:       1,
				PerRequestTimeout: 2 * time.Second,
				MaxConcurrent:     maxConc,
			}
			if useCache {
				cli.Cache = &cache.PageCache{Dir: b.TempDir()}
			}
			url := ts.URL + "/in/alex/"
			if useCache {
				_, _, _ = cli.Get(context.Background(), url)
			}
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					_, _, err := cli.Get(ctx, url)
					cancel()
					if err != nil {
						b.Fatalf("fetch failed: %v", err)
					}
				}
			})
		})
	}

	runScenario("conc=1,no-cache", 1, false)
	runScenario("conc=8,no-cache", 8, false)
	runScenario("conc=8,cache", 8, true)
}
