package markdown

import (
	"strings"
	"testing"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

func TestParseBasicMarkdown(t *testing.T) {
	p := NewGoldmarkParser(interfaces.ParseOptions{})

	out, err := p.Parse([]byte("# Heading\n\nSome *emphasis* here.\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "<h1") {
		t.Errorf("output missing heading: %q", html)
	}
	if !strings.Contains(html, "<em>emphasis</em>") {
		t.Errorf("output missing emphasis: %q", html)
	}
}

func TestParseAutoHeadingID(t *testing.T) {
	p := NewGoldmarkParser(interfaces.ParseOptions{})

	out, err := p.Parse([]byte("# Getting Started\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !strings.Contains(string(out), `id="getting-started"`) {
		t.Errorf("heading should carry an auto id: %q", out)
	}
}

func TestParseGFMTable(t *testing.T) {
	p := NewGoldmarkParser(interfaces.ParseOptions{})

	source := "| a | b |\n| --- | --- |\n| 1 | 2 |\n"
	out, err := p.Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !strings.Contains(string(out), "<table>") {
		t.Errorf("GFM tables should render by default: %q", out)
	}
}

func TestParseRawHTMLDefaultUnsafe(t *testing.T) {
	p := NewGoldmarkParser(interfaces.ParseOptions{})

	out, err := p.Parse([]byte("before\n\n<div class=\"note\">inline</div>\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !strings.Contains(string(out), `<div class="note">`) {
		t.Errorf("raw HTML should pass through by default: %q", out)
	}
}

func TestParseWithOptionsSafeMode(t *testing.T) {
	p := NewGoldmarkParser(interfaces.ParseOptions{})

	out, err := p.ParseWithOptions([]byte("<script>alert(1)</script>\n"), interfaces.ParseOptions{SafeMode: true})
	if err != nil {
		t.Fatalf("ParseWithOptions returned error: %v", err)
	}
	if strings.Contains(string(out), "<script>") {
		t.Errorf("safe mode should not emit raw HTML: %q", out)
	}
}

func TestParseWithOptionsLeavesDefaultEngineIntact(t *testing.T) {
	p := NewGoldmarkParser(interfaces.ParseOptions{})

	if _, err := p.ParseWithOptions([]byte("<div>x</div>\n"), interfaces.ParseOptions{SafeMode: true}); err != nil {
		t.Fatalf("ParseWithOptions returned error: %v", err)
	}
	out, err := p.Parse([]byte("<div class=\"note\">inline</div>\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !strings.Contains(string(out), `<div class="note">`) {
		t.Errorf("default parse should still allow raw HTML: %q", out)
	}
}

func TestParseWithOptionsExtensionSubset(t *testing.T) {
	p := NewGoldmarkParser(interfaces.ParseOptions{})

	source := "| a | b |\n| --- | --- |\n| 1 | 2 |\n"
	out, err := p.ParseWithOptions([]byte(source), interfaces.ParseOptions{Extensions: []string{"footnote"}})
	if err != nil {
		t.Fatalf("ParseWithOptions returned error: %v", err)
	}
	if strings.Contains(string(out), "<table>") {
		t.Errorf("tables should be off when only footnote is enabled: %q", out)
	}
}
