package view

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatfmt/internal/model"
)

func socialPath() string {
	return filepath.Join("..", "..", "testdata", "transcripts", "social.jsonl")
}

func TestParseTaskArg(t *testing.T) {
	set, err := parseTaskArg("")
	if err != nil || set != nil {
		t.Fatalf("empty arg should disable filtering, got %v %v", set, err)
	}
	set, err = parseTaskArg("all")
	if err != nil || set != nil {
		t.Fatalf("all should disable filtering, got %v %v", set, err)
	}

	set, err = parseTaskArg(" QA , image_generation ")
	if err != nil {
		t.Fatalf("parseTaskArg returned error: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected two tasks, got %#v", set)
	}
	if _, ok := set[model.TaskQA]; !ok {
		t.Fatalf("expected qa in filter")
	}
	if _, ok := set[model.TaskImageGeneration]; !ok {
		t.Fatalf("expected image_generation in filter")
	}
}

func TestParseTaskArgUnknown(t *testing.T) {
	if _, err := parseTaskArg("qa,translate"); err == nil {
		t.Fatalf("expected error for unknown task")
	}
}

func TestRenderChatLinesAlignment(t *testing.T) {
	messages := []message{
		{
			role:      roleUser,
			label:     "You",
			timestamp: time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC),
			lines:     []string{"hello there"},
		},
		{
			role:      roleAI,
			label:     "AI Assistant (Q&A)",
			timestamp: time.Date(2025, 10, 27, 12, 0, 5, 0, time.UTC),
			lines:     []string{"hi, how can I help you today?"},
		},
	}

	lines := renderChatTranscript(messages, 80, false)
	if len(lines) == 0 {
		t.Fatal("expected chat lines")
	}

	userTop := findPrefix(lines, "╭")
	if userTop < 0 {
		t.Fatalf("failed to locate user bubble: %v", lines)
	}

	next := findPrefix(lines[userTop+1:], "╭")
	if next < 0 {
		t.Fatalf("failed to locate assistant bubble: %v", lines)
	}
	assistantTop := next + userTop + 1

	if idx := strings.Index(lines[userTop], "╭"); idx <= 2 {
		t.Fatalf("user bubble should be right aligned, got index %d line %q", idx, lines[userTop])
	}

	if !strings.HasPrefix(lines[assistantTop], "  ╭") {
		t.Fatalf("assistant bubble should be left aligned: %q", lines[assistantTop])
	}
}

func TestWrapTextBreaksAtSpace(t *testing.T) {
	got := wrapText("alpha beta gamma", 11)
	want := []string{"alpha beta", "gamma"}
	if len(got) != len(want) {
		t.Fatalf("wrapText = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wrapText[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWrapWords(t *testing.T) {
	got := wrapWords("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapWords = %q, want %q", got, want)
	}
	if got := wrapWords("short", 0); len(got) != 1 || got[0] != "short" {
		t.Fatalf("zero width should not wrap, got %q", got)
	}
}

func findPrefix(lines []string, prefix string) int {
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) || strings.Contains(line, prefix) {
			return i
		}
	}
	return -1
}

func TestRunFormatRaw(t *testing.T) {
	path := socialPath()
	var buf bytes.Buffer
	if err := Run(Options{Path: path, Format: "raw", Out: &buf}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	wantBytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample file: %v", err)
	}
	want := strings.TrimRight(string(wantBytes), "\n") + "\n"
	if buf.String() != want {
		t.Fatalf("raw output mismatch\nwant:\n%q\n\ngot:\n%q", want, buf.String())
	}
}

func TestRunFormatTextSplitsPosts(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Path: socialPath(), Format: "text", TaskArg: "content_generation", Out: &buf, ForceNoColor: true}
	if err := Run(opts); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"[#001] content_generation | 2025-11-02T09:00:00Z",
		"| > Write two tweets about coffee",
		"── Post 1 ──",
		"── Post 2 ──",
		"#morning",
		"Espresso & an editor.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "What is Go?") {
		t.Fatalf("qa entry should be filtered out:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected ANSI codes with color disabled")
	}
}

func TestRunMaxEntriesKeepsLatest(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Path: socialPath(), Format: "text", MaxEntries: 1, Out: &buf, ForceNoColor: true}
	if err := Run(opts); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "image_generation") || !strings.Contains(out, "[image: 8 base64 chars]") {
		t.Fatalf("expected only the image entry:\n%s", out)
	}
	if strings.Contains(out, "content_generation") {
		t.Fatalf("older entries should be dropped:\n%s", out)
	}
}

func TestRunFormatChat(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Path: socialPath(), Format: "chat", TaskArg: "qa", Wrap: 60, Out: &buf, ForceNoColor: true}
	if err := Run(opts); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "AI Assistant (Q&A)") {
		t.Fatalf("expected assistant label in chat output:\n%s", out)
	}
	if !strings.Contains(out, "You · Nov 02 09:01") {
		t.Fatalf("expected user header in chat output:\n%s", out)
	}
}

func TestRunFormatHTML(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Path: socialPath(), Format: "html", TaskArg: "qa", Out: &buf}
	if err := Run(opts); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<h4>AI Assistant (Q&amp;A)</h4>`,
		`<strong>Go</strong>`,
		`<em>compiled</em>`,
		`<code>docs</code>`,
		`<a href="https://go.dev"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in html output:\n%s", want, out)
		}
	}
}

func TestRunWarnsOnMalformedLines(t *testing.T) {
	var out, errBuf bytes.Buffer
	path := filepath.Join("..", "..", "testdata", "transcripts", "archive", "broken.jsonl")
	if err := Run(Options{Path: path, Format: "text", Out: &out, Err: &errBuf, ForceNoColor: true}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.Count(errBuf.String(), "warning: "); got != 2 {
		t.Fatalf("expected 2 warnings, got %d:\n%s", got, errBuf.String())
	}
	if !strings.Contains(out.String(), "Error: image generation failed") {
		t.Fatalf("expected image error text:\n%s", out.String())
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	if err := Run(Options{Path: socialPath(), Format: "pdf", Out: &bytes.Buffer{}}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
