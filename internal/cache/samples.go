package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// SamplesDir is the sub directory of the cache holding failure samples.
const SamplesDir = "samples"

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SaveFailureSample writes an HTML snapshot of a section that yielded no
// items to <Dir>/samples/<section>-<timestamp>.html and returns its path.
func (c *PageCache) SaveFailureSample(section, html string) (string, error) {
	if c == nil || c.Dir == "" {
		return "", fmt.Errorf("cache dir not configured")
	}
	dir := filepath.Join(c.Dir, SamplesDir)
	if err := os.MkdirAll(dir, c.dirMode()); err != nil {
		return "", err
	}
	name := unsafeName.ReplaceAllString(section, "_")
	if name == "" {
		name = "section"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.html", name, time.Now().UTC().Format("20060102T150405.000000000")))
	if err := os.WriteFile(path, []byte(html), c.fileMode()); err != nil {
		return "", fmt.Errorf("write sample: %w", err)
	}
	return path, nil
}
