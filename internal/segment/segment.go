// Package segment decides whether a formatted response holds several
// generated variants and splits it into ordered content blocks.
//
// Input is text that has already been escaped and passed through the inline
// markdown rules, so bold headers appear as <strong> elements and quote
// markers appear as "&gt; ".
package segment

import (
	"regexp"
	"strings"

	"chatfmt/internal/model"
)

var (
	// optionHeader matches "Option 2:" style headers. The numeral and colon
	// are required.
	optionHeader = regexp.MustCompile(`(?i)\boption[ \t]*\d+:`)

	// boldHeader matches "**Post 1:**" and "**Post 1**:" after the bold rule
	// has turned them into <strong> elements.
	boldHeader = regexp.MustCompile(`(?i)<strong>[ \t]*(?:post|tweet|caption|description)[ \t]*\d+(?::[ \t]*</strong>|[ \t]*</strong>:)`)

	quotedLine   = regexp.MustCompile(`(?m)^[ \t]*&gt; `)
	numberedLine = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]`)
)

// Opening tags that may wrap a header. A boundary found right after one of
// them starts at the tag instead, so the tag stays with its header.
var openers = []string{"<strong>", "<em>"}

const lineBreak = "<br>"

// Detect reports which multi-post patterns occur in text.
func Detect(text string) model.Detection {
	var d model.Detection
	spans := markupSpans(text)
	if len(headerMatches(text, optionHeader, spans)) > 0 {
		d |= model.DetectOptionHeader
	}
	if len(headerMatches(text, boldHeader, spans)) > 0 {
		d |= model.DetectBoldHeader
	}
	if quotedLine.MatchString(text) {
		d |= model.DetectQuotedLine
	}
	if numberedLine.MatchString(text) {
		d |= model.DetectNumberedList
	}
	return d
}

// Split turns formatted text into a content envelope. Option headers are
// tried first, then bold post headers. When neither produces at least two
// non-empty sections the whole text becomes a single block.
//
// Quoted lines and numbered lists are detected and reported in the
// envelope's hints but never cause a split.
func Split(text string) model.ContentEnvelope {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	hints := Detect(text)

	if hints.Has(model.DetectOptionHeader) {
		if sections := splitOn(text, optionHeader); len(sections) > 1 {
			return model.NewEnvelope(buildBlocks(sections, true), hints)
		}
	}
	if hints.Has(model.DetectBoldHeader) {
		if sections := splitOn(text, boldHeader); len(sections) > 1 {
			return model.NewEnvelope(buildBlocks(sections, false), hints)
		}
	}

	source := strings.TrimSpace(text)
	single := model.ContentBlock{
		Index:      1,
		HTML:       breakLines(source),
		SourceText: source,
	}
	return model.NewEnvelope([]model.ContentBlock{single}, hints)
}

// splitOn cuts text in front of every match of boundary that lies outside
// markup. The text before the first boundary is kept as its own section.
// Sections are trimmed and empty ones dropped.
func splitOn(text string, boundary *regexp.Regexp) []string {
	matches := headerMatches(text, boundary, markupSpans(text))
	if len(matches) == 0 {
		return nil
	}

	sections := make([]string, 0, len(matches)+1)
	prev := 0
	for _, loc := range matches {
		start := widenStart(text, loc[0])
		if start < prev {
			start = prev
		}
		sections = appendSection(sections, text[prev:start])
		prev = start
	}
	return appendSection(sections, text[prev:])
}

// span is a half-open byte range [lo, hi) where no header may start.
type span struct {
	lo, hi int
}

// markupSpans returns the ranges of text occupied by tag interiors and by
// the contents of <a> and <code> elements, tags included.
func markupSpans(text string) []span {
	var spans []span
	guarded, guardStart := 0, 0
	for i := 0; i < len(text); {
		lt := strings.IndexByte(text[i:], '<')
		if lt < 0 {
			break
		}
		lt += i
		gt := strings.IndexByte(text[lt:], '>')
		if gt < 0 {
			break
		}
		gt += lt
		tag := text[lt : gt+1]
		switch {
		case strings.HasPrefix(tag, "<a ") || tag == "<code>":
			if guarded == 0 {
				guardStart = lt
			}
			guarded++
		case (tag == "</a>" || tag == "</code>") && guarded > 0:
			guarded--
			if guarded == 0 {
				spans = append(spans, span{guardStart + 1, gt + 1})
			}
		default:
			if guarded == 0 {
				spans = append(spans, span{lt + 1, gt + 1})
			}
		}
		i = gt + 1
	}
	if guarded > 0 {
		spans = append(spans, span{guardStart + 1, len(text)})
	}
	return spans
}

// headerMatches returns the matches of pattern whose start is not inside
// any of spans.
func headerMatches(text string, pattern *regexp.Regexp, spans []span) [][]int {
	all := pattern.FindAllStringIndex(text, -1)
	matches := all[:0]
	for _, loc := range all {
		if !covered(spans, loc[0]) {
			matches = append(matches, loc)
		}
	}
	return matches
}

func covered(spans []span, pos int) bool {
	for _, s := range spans {
		if pos >= s.lo && pos < s.hi {
			return true
		}
	}
	return false
}

func widenStart(text string, start int) int {
	for {
		moved := false
		for _, open := range openers {
			if strings.HasSuffix(text[:start], open) {
				start -= len(open)
				moved = true
			}
		}
		if !moved {
			return start
		}
	}
}

func appendSection(sections []string, section string) []string {
	section = strings.TrimSpace(section)
	if section == "" {
		return sections
	}
	return append(sections, section)
}

func buildBlocks(sections []string, quotes bool) []model.ContentBlock {
	blocks := make([]model.ContentBlock, 0, len(sections))
	for i, section := range sections {
		html := section
		if quotes {
			html = quoteLines(html)
		}
		blocks = append(blocks, model.ContentBlock{
			Index:      i + 1,
			HTML:       breakLines(html),
			SourceText: section,
		})
	}
	return blocks
}

// quoteLines wraps every line that starts with an escaped "> " marker in a
// blockquote.
func quoteLines(section string) string {
	lines := strings.Split(section, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if rest, ok := strings.CutPrefix(trimmed, "&gt; "); ok {
			lines[i] = "<blockquote>" + strings.TrimSpace(rest) + "</blockquote>"
		}
	}
	return strings.Join(lines, "\n")
}

func breakLines(text string) string {
	return strings.ReplaceAll(text, "\n", lineBreak)
}
