// Command debugselectors reports, for a saved profile, which fallback
// selector of every section resolves on the main page and what the
// extraction pipeline makes of the located regions.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/regions"
	"github.com/hyperifyio/goprofile/internal/scrape"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.DefaultContextLogger = &log.Logger

	var (
		pagesDir string
		profile  string
		selFile  string
		sections string
		verbose  bool
	)
	flag.StringVar(&pagesDir, "pages", os.Getenv("PAGES_DIR"), "Directory of saved pages (index.html plus details/...)")
	flag.StringVar(&profile, "url", "https://www.linkedin.com/in/profile/", "Profile URL the pages were saved from")
	flag.StringVar(&selFile, "selectors", os.Getenv("SELECTORS_FILE"), "YAML file with selector overrides")
	flag.StringVar(&sections, "sections", "", "Comma-separated sections to report; empty reports all")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	if pagesDir == "" {
		fmt.Fprintln(os.Stderr, "debugselectors: -pages is required")
		os.Exit(1)
	}
	table, err := selectors.Load(selFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "debugselectors:", err)
		os.Exit(1)
	}
	var names []string
	for _, n := range strings.Split(sections, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	nav := page.DirNavigator{Dir: pagesDir, Base: profile}
	if err := report(context.Background(), os.Stdout, table, nav, profile, names); err != nil {
		fmt.Fprintln(os.Stderr, "debugselectors:", err)
		os.Exit(1)
	}
}

// report writes two tables: match counts of every candidate selector on the
// main page, then the located regions and the pipeline outcome per section.
func report(ctx context.Context, w io.Writer, table selectors.Table, nav page.Navigator, profile string, names []string) error {
	mainPage, err := nav.Open(ctx, profile)
	if err != nil {
		return fmt.Errorf("open profile: %w", err)
	}
	if len(names) == 0 {
		names = scrape.AllSections
	}
	x := regions.New(table, nav, profile)
	s := scrape.New(x, scrape.DefaultOptions())

	cand := prettytable.NewWriter()
	cand.SetOutputMirror(w)
	cand.SetStyle(prettytable.StyleLight)
	cand.AppendHeader(prettytable.Row{"Section", "Kind", "Role", "Selector", "Matches", ""})

	outcome := prettytable.NewWriter()
	outcome.SetOutputMirror(w)
	outcome.SetStyle(prettytable.StyleLight)
	outcome.AppendHeader(prettytable.Row{"Section", "Items", "Raw", "Strategy", "Confidence", "Status", "Pages"})

	for _, name := range names {
		sec, ok := table.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown section %q", name)
		}
		for _, g := range candidateGroups(sec) {
			for _, sel := range g.selectors {
				n := count(ctx, mainPage, sel)
				mark := ""
				if n > 0 {
					mark = "*"
				}
				cand.AppendRow(prettytable.Row{name, sec.Kind, g.name, sel, n, mark})
			}
		}
		cand.AppendSeparator()

		ex, err := x.Extract(ctx, name, mainPage)
		if err != nil {
			return err
		}
		res, err := s.ExtractSection(ctx, name, mainPage)
		if err != nil {
			return err
		}
		outcome.AppendRow(prettytable.Row{
			name, len(ex.Items), len(ex.Raw), orNone(res.Strategy),
			fmt.Sprintf("%.2f", res.Confidence), res.Health.Status, strings.Join(ex.Sources, "\n"),
		})
	}
	cand.Render()
	outcome.Render()
	return nil
}

type group struct {
	name      string
	selectors []string
}

func candidateGroups(sec selectors.Section) []group {
	var out []group
	add := func(name string, sels ...string) {
		var keep []string
		for _, s := range sels {
			if strings.TrimSpace(s) != "" {
				keep = append(keep, s)
			}
		}
		if len(keep) > 0 {
			out = append(out, group{name: name, selectors: keep})
		}
	}
	add("root", sec.Roots...)
	add("item", sec.Items...)
	add("sub-item", sec.SubItems)
	add("tab", sec.Tabs...)
	add("panel", sec.Panels...)
	add("block", sec.Blocks)
	return out
}

func count(ctx context.Context, d page.Driver, sel string) int {
	regs, err := d.Locate(ctx, sel)
	if err != nil {
		return -1
	}
	return len(regs)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
