// Package markdown converts the small markdown subset that task results use
// into inline HTML. Input must already be HTML-escaped.
package markdown

import (
	"regexp"
	"strings"
)

var (
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern  = regexp.MustCompile(`\*([^*]+)\*`)
	codePattern    = regexp.MustCompile("`([^`]+)`")
	urlPattern     = regexp.MustCompile(`https?://[^\s<>"']+`)
	hashtagPattern = regexp.MustCompile(`#[A-Za-z0-9_]+`)
	mentionPattern = regexp.MustCompile(`@[A-Za-z0-9_]+`)
)

// Escaped forms of the characters a bare URL may not contain.
var urlStops = []string{"&quot;", "&#039;", "&lt;", "&gt;"}

// Inline applies bold, italic, inline code, link, hashtag and mention rules
// in that order. Unmatched delimiters are left as they are.
func Inline(escaped string) string {
	out := boldPattern.ReplaceAllString(escaped, "<strong>$1</strong>")
	out = italicPattern.ReplaceAllString(out, "<em>$1</em>")
	out = codePattern.ReplaceAllString(out, "<code>$1</code>")
	return decorateText(out)
}

// decorateText runs the link, hashtag and mention rules over the text between
// tags. Text inside <a> and <code> is copied unchanged.
func decorateText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	guarded := 0
	for s != "" {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			writeText(&b, s, guarded > 0)
			break
		}
		writeText(&b, s[:lt], guarded > 0)

		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			// Escaped input never contains a raw '<', so this is not a tag.
			b.WriteString(s[lt:])
			break
		}
		tag := s[lt : lt+gt+1]
		switch {
		case strings.HasPrefix(tag, "<a ") || tag == "<code>":
			guarded++
		case (tag == "</a>" || tag == "</code>") && guarded > 0:
			guarded--
		}
		b.WriteString(tag)
		s = s[lt+gt+1:]
	}
	return b.String()
}

func writeText(b *strings.Builder, text string, guarded bool) {
	if guarded || text == "" {
		b.WriteString(text)
		return
	}

	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], trimURL(text, loc[0], loc[1])
		b.WriteString(styleWords(text[last:start]))
		url := text[start:end]
		b.WriteString(`<a href="`)
		b.WriteString(url)
		b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
		b.WriteString(url)
		b.WriteString("</a>")
		last = end
	}
	b.WriteString(styleWords(text[last:]))
}

// trimURL ends a URL match before the first escaped quote or angle bracket.
func trimURL(text string, start, end int) int {
	match := text[start:end]
	for _, stop := range urlStops {
		if idx := strings.Index(match, stop); idx >= 0 {
			match = match[:idx]
		}
	}
	return start + len(match)
}

func styleWords(text string) string {
	text = wrapWord(text, hashtagPattern, "hashtag")
	return wrapWord(text, mentionPattern, "mention")
}

// wrapWord wraps each match in a styling span unless it directly follows a
// word character or '&'. The second case keeps numeric references such as
// &#039; and email addresses intact.
func wrapWord(text string, pattern *regexp.Regexp, class string) string {
	matches := pattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, loc := range matches {
		if loc[0] > 0 && !boundary(text[loc[0]-1]) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(`<span class="`)
		b.WriteString(class)
		b.WriteString(`">`)
		b.WriteString(text[loc[0]:loc[1]])
		b.WriteString("</span>")
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func boundary(c byte) bool {
	switch {
	case c == '&' || c == '_':
		return false
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	default:
		return true
	}
}
