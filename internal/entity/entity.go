// Package entity decodes and encodes HTML character references for the
// response formatter.
package entity

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// doubled matches a reference from the fixed set whose leading ampersand was
// escaped a second time.
var doubled = regexp.MustCompile(`&amp;(amp|lt|gt|quot|#0?39|#[xX]27|#[xX]2[fF]|#[xX]60|#[xX]3[dD]);`)

// harmless references resolve to characters that cannot open a tag or close
// an attribute.
var harmless = strings.NewReplacer(
	"&#x2F;", "/",
	"&#x2f;", "/",
	"&#X2F;", "/",
	"&#X2f;", "/",
	"&#x60;", "`",
	"&#X60;", "`",
	"&#x3D;", "=",
	"&#x3d;", "=",
	"&#X3D;", "=",
	"&#X3d;", "=",
	"&#x27;", "&#039;",
	"&#X27;", "&#039;",
	"&#39;", "&#039;",
)

// Decode resolves named and numeric character references in a single pass.
// Unknown references are left untouched.
func Decode(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return html.UnescapeString(text)
}

// Escape maps & < > " ' to their entity forms.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Clean removes entity residue left by repeated encode/decode cycles. It
// never emits a raw '<', '>' or '"', so it is safe to run on finished
// markup. It runs until the text stops changing.
func Clean(markup string) string {
	if !strings.Contains(markup, "&") {
		return markup
	}
	for {
		next := doubled.ReplaceAllString(markup, "&$1;")
		next = harmless.Replace(next)
		if next == markup {
			return next
		}
		markup = next
	}
}
