package format

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var controlClasses = map[string]struct{}{
	ClassHeader: {},
	ClassLabel:  {},
	ClassCopy:   {},
	ClassCopied: {},
}

// Elements whose boundaries separate words in the extracted text.
var blockElements = map[string]struct{}{
	"div": {}, "p": {}, "blockquote": {}, "li": {}, "ul": {}, "ol": {},
}

var delimiterEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// PlainText extracts the copyable text of rendered markup. Headers, labels,
// buttons and copy indicators are dropped, whitespace runs collapse to one
// space, and the result is trimmed and NFC-normalized.
//
// Other entities are decoded, but '<' and '>' are returned as "&lt;" and
// "&gt;" so the result never contains tag delimiters. Copying "x > 5" yields
// "x &gt; 5", which reads the same as a literal "&gt;" in the source.
func PlainText(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var b strings.Builder
	collectText(doc, &b)
	text := norm.NFC.String(collapseWhitespace(b.String()))
	return delimiterEscaper.Replace(text)
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if isControl(n) {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}

	_, block := blockElements[n.Data]
	if block && n.Type == html.ElementNode {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if block && n.Type == html.ElementNode {
		b.WriteByte(' ')
	}
}

func isControl(n *html.Node) bool {
	if n.Data == "button" || n.Data == "script" || n.Data == "style" {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			if _, ok := controlClasses[class]; ok {
				return true
			}
		}
	}
	return false
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
