package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

func TestReport_MarksResolvingSelectors(t *testing.T) {
	base := "https://www.linkedin.com/in/alex/"
	nav := page.StaticNavigator{Pages: map[string]string{
		base: `<html><body><main>
<section class="artdeco-card"><h1>Alex Doe</h1><p>Engineer</p><p>Oslo</p></section>
<section><div><h2>Experience</h2></div><ul>
<li><span aria-hidden="true">Engineer</span><span aria-hidden="true">Acme</span><span aria-hidden="true">2020 - Present</span></li>
</ul></section>
</main></body></html>`,
	}}
	var buf bytes.Buffer
	err := report(context.Background(), &buf, selectors.Default(), nav, base, []string{selectors.TopCard, selectors.Experience})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"top-card", "single", "experience", "list", "ul > li", "STRATEGY"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in report:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "*") {
		t.Fatalf("expected at least one resolving selector:\n%s", out)
	}

	if err := report(context.Background(), &buf, selectors.Default(), nav, base, []string{"skills"}); err == nil {
		t.Fatalf("expected error for unknown section")
	}
	if err := report(context.Background(), &buf, selectors.Default(), page.StaticNavigator{}, base, nil); err == nil {
		t.Fatalf("expected error for missing profile page")
	}
}
