// Package format renders content envelopes as markup, extracts their
// clipboard text, and lists blocks in tabular formats.
package format

import (
	"strconv"
	"strings"

	"chatfmt/internal/entity"
	"chatfmt/internal/model"
)

// Class names used in rendered markup. Header and control classes are
// skipped when extracting plain text.
const (
	ClassContainer = "multi-post-container"
	ClassBlock     = "post-block"
	ClassHeader    = "post-header"
	ClassLabel     = "post-label"
	ClassContent   = "post-content"
	ClassCopy      = "copy-post-btn"
	ClassCopied    = "copy-success"
)

// Render returns the markup for an envelope. Several blocks are wrapped in a
// multi-post container, each with a header and copy control; a single block
// is emitted as its content element.
func Render(env model.ContentEnvelope) string {
	if len(env.Blocks) == 0 {
		return `<div class="` + ClassContent + `"></div>`
	}
	if !env.IsMultiPost {
		return entity.Clean(RenderBlock(env.Blocks[0], false))
	}

	var b strings.Builder
	b.WriteString(`<div class="` + ClassContainer + `">`)
	for _, block := range env.Blocks {
		b.WriteString(RenderBlock(block, true))
	}
	b.WriteString(`</div>`)
	return entity.Clean(b.String())
}

// RenderBlock returns the markup for one block. When multi is set the block
// carries its own header with a label and copy control.
func RenderBlock(block model.ContentBlock, multi bool) string {
	content := `<div class="` + ClassContent + `">` + block.HTML + `</div>`
	if !multi {
		return content
	}

	n := strconv.Itoa(block.Index)
	var b strings.Builder
	b.WriteString(`<div class="` + ClassBlock + `" data-post="` + n + `">`)
	b.WriteString(`<div class="` + ClassHeader + `">`)
	b.WriteString(`<span class="` + ClassLabel + `">Post ` + n + `</span>`)
	b.WriteString(`<button type="button" class="` + ClassCopy + `" data-post="` + n + `">Copy</button>`)
	b.WriteString(`</div>`)
	b.WriteString(content)
	b.WriteString(`</div>`)
	return b.String()
}

// BlockText returns the clipboard text for a block as it appears in an
// envelope with the given layout.
func BlockText(block model.ContentBlock, multi bool) string {
	return PlainText(entity.Clean(RenderBlock(block, multi)))
}

// BlockTexts returns the clipboard text of every block in env, in order.
func BlockTexts(env model.ContentEnvelope) []string {
	texts := make([]string, 0, len(env.Blocks))
	for _, block := range env.Blocks {
		texts = append(texts, BlockText(block, env.IsMultiPost))
	}
	return texts
}
