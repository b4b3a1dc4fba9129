// Command profile-stub serves a directory of saved profile pages over HTTP so
// goprofile can be run end to end without touching the real site.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/page"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8082"
	}
	var (
		dir    string
		prefix string
		cookie string
	)
	flag.StringVar(&addr, "addr", addr, "Listen address")
	flag.StringVar(&dir, "dir", os.Getenv("PAGES_DIR"), "Directory of saved pages (index.html plus details/...)")
	flag.StringVar(&prefix, "prefix", "/in/profile/", "URL path the profile is served under")
	flag.StringVar(&cookie, "cookie", os.Getenv("SESSION_COOKIE"), "Require this Cookie header when set")
	flag.Parse()
	if dir == "" {
		log.Fatal().Msg("-dir is required")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(dir, prefix, cookie),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Str("dir", dir).Str("prefix", prefix).Msg("serving saved profile")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// newHandler maps <prefix> to dir/index.html and <prefix>details/x/ to
// dir/details/x.html, with ETag revalidation like the real site's CDN.
func newHandler(dir, prefix, cookie string) http.Handler {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if cookie != "" && r.Header.Get("Cookie") != cookie {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(r.URL.Path+"/", prefix) || strings.Contains(r.URL.Path, "..") {
			http.NotFound(w, r)
			return
		}
		path := filepath.Join(dir, page.PageFile(prefix, r.URL.Path))
		b, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "read page", http.StatusInternalServerError)
			return
		}
		sum := sha256.Sum256(b)
		etag := `"` + hex.EncodeToString(sum[:8]) + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		log.Debug().Str("path", r.URL.Path).Str("file", path).Msg("page served")
		_, _ = w.Write(b)
	})
}
