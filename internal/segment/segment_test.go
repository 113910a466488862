package segment

import (
	"strings"
	"testing"

	"chatfmt/internal/entity"
	"chatfmt/internal/markdown"
	"chatfmt/internal/model"
)

func prepare(raw string) string {
	return markdown.Inline(entity.Escape(entity.Decode(raw)))
}

func TestSplitOptionHeaders(t *testing.T) {
	env := Split(prepare("Option 1: A\nOption 2: B"))
	if len(env.Blocks) != 2 || !env.IsMultiPost {
		t.Fatalf("expected 2 blocks, got %#v", env)
	}
	if env.Blocks[0].Index != 1 || env.Blocks[1].Index != 2 {
		t.Fatalf("blocks out of order: %#v", env.Blocks)
	}
	if env.Blocks[0].SourceText != "Option 1: A" || env.Blocks[1].SourceText != "Option 2: B" {
		t.Fatalf("unexpected source text: %q / %q", env.Blocks[0].SourceText, env.Blocks[1].SourceText)
	}
	if strings.Contains(env.Blocks[0].SourceText, "B") || strings.Contains(env.Blocks[1].SourceText, "A") {
		t.Fatalf("blocks leak each other's content: %#v", env.Blocks)
	}
	if !env.Hints.Has(model.DetectOptionHeader) {
		t.Fatalf("option header hint missing: %v", env.Hints)
	}
}

func TestSplitOptionHeadersCaseInsensitiveWithPreamble(t *testing.T) {
	text := prepare("Here are two ideas:\n\noption 1: Sunrise run\n> Stay strong\nOPTION 2: Night swim\nline two")
	env := Split(text)
	if len(env.Blocks) != 3 {
		t.Fatalf("expected preamble plus two options, got %d: %#v", len(env.Blocks), env.Blocks)
	}
	if env.Blocks[0].SourceText != "Here are two ideas:" {
		t.Fatalf("unexpected preamble: %q", env.Blocks[0].SourceText)
	}
	if got := env.Blocks[1].HTML; got != "option 1: Sunrise run<br><blockquote>Stay strong</blockquote>" {
		t.Fatalf("unexpected option html: %q", got)
	}
	if got := env.Blocks[2].HTML; got != "OPTION 2: Night swim<br>line two" {
		t.Fatalf("unexpected option html: %q", got)
	}
}

func TestSplitSingleOptionFallsThrough(t *testing.T) {
	env := Split(prepare("Option 1: only one"))
	if len(env.Blocks) != 1 || env.IsMultiPost {
		t.Fatalf("single option must not split: %#v", env)
	}
	if !env.Hints.Has(model.DetectOptionHeader) {
		t.Fatal("detection should still be reported")
	}
}

func TestSplitRequiresNumeralAndColon(t *testing.T) {
	inputs := []string{
		"Option A: first\nOption B: second",
		"Option 1 first\nOption 2 second",
		"**Post** one\n**Post** two",
		"Post 1: plain\nPost 2: plain",
		"Adoption 1: no\nAdoption 2: no",
	}
	for _, in := range inputs {
		if env := Split(prepare(in)); len(env.Blocks) != 1 {
			t.Fatalf("%q should not split, got %d blocks", in, len(env.Blocks))
		}
	}
}

func TestSplitBoldHeaders(t *testing.T) {
	text := prepare("**Tweet 1:** Coffee first.\n#morning\n\n**tweet 2**: Then code.")
	env := Split(text)
	if len(env.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %#v", env.Blocks)
	}
	if !strings.HasPrefix(env.Blocks[0].HTML, "<strong>Tweet 1:</strong> Coffee first.<br>") {
		t.Fatalf("unexpected first block: %q", env.Blocks[0].HTML)
	}
	if env.Blocks[1].HTML != "<strong>tweet 2</strong>: Then code." {
		t.Fatalf("unexpected second block: %q", env.Blocks[1].HTML)
	}
	if !env.Hints.Has(model.DetectBoldHeader) {
		t.Fatalf("bold header hint missing: %v", env.Hints)
	}
}

func TestSplitBoldHeadersDoNotQuote(t *testing.T) {
	env := Split(prepare("**Caption 1:** a\n> quoted\n**Caption 2:** b"))
	if len(env.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %#v", env.Blocks)
	}
	if strings.Contains(env.Blocks[0].HTML, "<blockquote>") {
		t.Fatalf("bold header path must not convert quotes: %q", env.Blocks[0].HTML)
	}
}

func TestSplitOptionKeepsWrappingBold(t *testing.T) {
	env := Split(prepare("**Option 1:** A\n**Option 2:** B"))
	if len(env.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %#v", env.Blocks)
	}
	if env.Blocks[0].HTML != "<strong>Option 1:</strong> A" {
		t.Fatalf("opening tag should stay with its header: %q", env.Blocks[0].HTML)
	}
	if env.Blocks[1].HTML != "<strong>Option 2:</strong> B" {
		t.Fatalf("opening tag should stay with its header: %q", env.Blocks[1].HTML)
	}
}

func TestSplitOptionWinsOverBoldHeaders(t *testing.T) {
	env := Split(prepare("Option 1: **Post 1:** x\nOption 2: **Post 2:** y\n**Post 3:** z"))
	if len(env.Blocks) != 2 {
		t.Fatalf("option split should win, got %d blocks", len(env.Blocks))
	}
}

func TestSplitSingleBlock(t *testing.T) {
	text := prepare("  Just one answer.\nWith two lines.  ")
	env := Split(text)
	if len(env.Blocks) != 1 || env.IsMultiPost {
		t.Fatalf("expected single block: %#v", env)
	}
	block := env.Blocks[0]
	if block.Index != 1 {
		t.Fatalf("single block index should be 1, got %d", block.Index)
	}
	if block.HTML != "Just one answer.<br>With two lines." {
		t.Fatalf("unexpected html: %q", block.HTML)
	}
}

func TestSplitHintsNeverSplit(t *testing.T) {
	text := prepare("1. First idea\n2. Second idea\n> a quote")
	env := Split(text)
	if len(env.Blocks) != 1 {
		t.Fatalf("numbered and quoted lines must not split, got %d", len(env.Blocks))
	}
	if !env.Hints.Has(model.DetectNumberedList) || !env.Hints.Has(model.DetectQuotedLine) {
		t.Fatalf("expected numbered and quote hints, got %v", env.Hints)
	}
	if strings.Contains(env.Blocks[0].HTML, "<blockquote>") {
		t.Fatalf("single block must not convert quotes: %q", env.Blocks[0].HTML)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	env := Split("")
	if len(env.Blocks) != 1 || env.Blocks[0].Index != 1 {
		t.Fatalf("empty input still yields one block: %#v", env)
	}
	if env.Hints.Candidate() {
		t.Fatalf("no hints expected, got %v", env.Hints)
	}
}

func TestSplitCRLF(t *testing.T) {
	env := Split("Option 1: A\r\nOption 2: B\r\n")
	if len(env.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %#v", env.Blocks)
	}
	if env.Blocks[1].SourceText != "Option 2: B" {
		t.Fatalf("unexpected source text: %q", env.Blocks[1].SourceText)
	}
}

func TestSplitIgnoresHeadersInsideMarkup(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		whole string
	}{
		{
			name:  "link",
			raw:   "Option 1: see https://ex.com/option3:x\nOption 2: B",
			whole: `<a href="https://ex.com/option3:x" target="_blank" rel="noopener noreferrer">https://ex.com/option3:x</a>`,
		},
		{
			name:  "code",
			raw:   "Option 1: run `option 3: y` now\nOption 2: B",
			whole: "<code>option 3: y</code>",
		},
	}
	for _, tc := range cases {
		env := Split(prepare(tc.raw))
		if len(env.Blocks) != 2 {
			t.Fatalf("%s: expected 2 blocks, got %d: %#v", tc.name, len(env.Blocks), env.Blocks)
		}
		if !strings.Contains(env.Blocks[0].HTML, tc.whole) {
			t.Fatalf("%s: first block lost its markup: %q", tc.name, env.Blocks[0].HTML)
		}
		if env.Blocks[1].SourceText != "Option 2: B" {
			t.Fatalf("%s: unexpected second block: %q", tc.name, env.Blocks[1].SourceText)
		}
	}
}

func TestDetectIgnoresHeadersInsideMarkup(t *testing.T) {
	hints := Detect(prepare("see `option 3: y` and https://ex.com/option4:z"))
	if hints.Has(model.DetectOptionHeader) {
		t.Fatalf("option header inside markup should not be detected: %v", hints)
	}
	env := Split(prepare("only `option 3: y` here"))
	if len(env.Blocks) != 1 || env.IsMultiPost {
		t.Fatalf("expected a single block, got %#v", env.Blocks)
	}
}
