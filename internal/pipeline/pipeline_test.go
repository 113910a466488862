package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"chatfmt/internal/format"
	"chatfmt/internal/model"
)

var hostile = []string{
	"<script>alert(1)</script>",
	"&lt;script&gt;alert(1)&lt;/script&gt;",
	"&amp;lt;script&amp;gt;alert(1)",
	"**<script>**x**</script>**",
	"`<script>`",
	"https://evil.io/<script>alert(1)</script>",
	"https://evil.io/\"><script>alert(1)</script>",
	"Option 1: <script>a</script>\nOption 2: <SCRIPT>b</SCRIPT>",
	"**Post 1:** <img src=x onerror=alert(1)>\n**Post 2:** &#60;script&#62;",
	"#tag<script> @user<script>",
	"> <script>quoted</script>",
}

func TestNoScriptInjection(t *testing.T) {
	for _, kind := range model.TaskKinds {
		for _, in := range hostile {
			out, err := Format(kind, in)
			if err != nil {
				t.Fatalf("Format(%v) returned error: %v", kind, err)
			}
			if strings.Contains(strings.ToLower(out.Markup()), "<script") {
				t.Fatalf("raw script tag in %v output for %q: %q", kind, in, out.Markup())
			}
			if strings.Contains(out.Markup(), "<img src=x") {
				t.Fatalf("raw img tag in %v output for %q: %q", kind, in, out.Markup())
			}
			if text, ok := out.(TextOutput); ok {
				for _, plain := range text.Texts() {
					if strings.ContainsAny(plain, "<>") {
						t.Fatalf("plain text contains tag delimiters for %q: %q", in, plain)
					}
				}
			}
		}
	}
}

func TestFormatContentGenerationOptions(t *testing.T) {
	out, err := Format(model.TaskContentGeneration, "Option 1: A\nOption 2: B")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	text, ok := out.(TextOutput)
	if !ok {
		t.Fatalf("expected TextOutput, got %T", out)
	}
	if len(text.Envelope.Blocks) != 2 || !text.Envelope.IsMultiPost {
		t.Fatalf("expected two blocks: %#v", text.Envelope)
	}
	if got := text.Texts(); got[0] != "Option 1: A" || got[1] != "Option 2: B" {
		t.Fatalf("unexpected clipboard texts: %q", got)
	}
	if !strings.Contains(text.HTML, format.ClassContainer) {
		t.Fatalf("multi-post markup missing container: %q", text.HTML)
	}
}

func TestFormatDecodesBeforeEscaping(t *testing.T) {
	out := FormatText(model.TaskQA, "Tom &amp; Jerry&#039;s **show**")
	want := `<div class="post-content">Tom &amp; Jerry&#039;s <strong>show</strong></div>`
	if out.HTML != want {
		t.Fatalf("unexpected html\nwant: %q\ngot:  %q", want, out.HTML)
	}
	if got := out.Texts()[0]; got != "Tom & Jerry's show" {
		t.Fatalf("unexpected clipboard text: %q", got)
	}
}

func TestSingleBlockWithoutHeaders(t *testing.T) {
	inputs := []string{
		"Plain answer.",
		"1. one\n2. two\n3. three",
		"> quoted\n> more",
		"Post 1: not bold\nPost 2: still not bold",
		"**Post** one **Tweet** two",
	}
	for _, in := range inputs {
		if env := Segment(in); len(env.Blocks) != 1 {
			t.Fatalf("Segment(%q) produced %d blocks", in, len(env.Blocks))
		}
	}
}

func TestFormatImage(t *testing.T) {
	out, err := Format(model.TaskImageGeneration, "Error: generation failed")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	img, ok := out.(ImageOutput)
	if !ok {
		t.Fatalf("expected ImageOutput, got %T", out)
	}
	if _, ok := img.Classification.(model.ImageError); !ok {
		t.Fatalf("expected error classification, got %T", img.Classification)
	}

	out, _ = Format(model.TaskImageGeneration, "iVBORw0KGgoAAAANSUhEUgAAAAUA")
	if _, ok := out.(ImageOutput).Classification.(model.ImagePayload); !ok {
		t.Fatalf("expected payload classification")
	}
}

func TestFormatUnknownKind(t *testing.T) {
	if _, err := Format(model.TaskKind(0), "x"); !errors.Is(err, model.ErrUnknownTaskKind) {
		t.Fatalf("expected ErrUnknownTaskKind, got %v", err)
	}
}

func TestFormatConcurrent(t *testing.T) {
	want := FormatText(model.TaskContentGeneration, "**Tweet 1:** a #x\n**Tweet 2:** b @y").HTML
	for i := 0; i < 8; i++ {
		t.Run(fmt.Sprintf("worker-%d", i), func(t *testing.T) {
			t.Parallel()
			for j := 0; j < 50; j++ {
				got := FormatText(model.TaskContentGeneration, "**Tweet 1:** a #x\n**Tweet 2:** b @y").HTML
				if got != want {
					t.Fatalf("concurrent result differs: %q", got)
				}
			}
		})
	}
}

func TestFormatKeepsLinksWhole(t *testing.T) {
	out := FormatText(model.TaskContentGeneration, "Option 1: see https://ex.com/option1:x\nOption 2: B")
	if len(out.Envelope.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %#v", len(out.Envelope.Blocks), out.Envelope.Blocks)
	}
	texts := out.Texts()
	if texts[0] != "Option 1: see https://ex.com/option1:x" {
		t.Fatalf("unexpected first block text: %q", texts[0])
	}
	for _, text := range texts {
		if strings.Contains(text, "target=") || strings.Contains(text, "&gt;") {
			t.Fatalf("attribute text leaked into copy: %q", text)
		}
	}
}
