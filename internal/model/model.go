// Package model provides the value types shared by the formatting pipeline.
package model

// ContentBlock is one independently renderable and copyable unit of output.
type ContentBlock struct {
	Index      int
	HTML       string
	SourceText string
}

// ContentEnvelope holds the ordered blocks produced for one response.
// IsMultiPost is true exactly when there is more than one block.
type ContentEnvelope struct {
	Blocks      []ContentBlock
	IsMultiPost bool
	Hints       Detection
}

// NewEnvelope builds an envelope from blocks and keeps IsMultiPost in sync.
func NewEnvelope(blocks []ContentBlock, hints Detection) ContentEnvelope {
	return ContentEnvelope{
		Blocks:      blocks,
		IsMultiPost: len(blocks) > 1,
		Hints:       hints,
	}
}

// Detection records which multi-post detectors matched a text.
type Detection uint8

const (
	// DetectOptionHeader is set for "Option N:" headers.
	DetectOptionHeader Detection = 1 << iota
	// DetectBoldHeader is set for bold "Post N:" style headers.
	DetectBoldHeader
	// DetectQuotedLine is set for lines starting with a quote marker.
	DetectQuotedLine
	// DetectNumberedList is set for "1. " style list markers.
	DetectNumberedList
)

// Has reports whether every bit of flag is set.
func (d Detection) Has(flag Detection) bool {
	return d&flag == flag && flag != 0
}

// Candidate reports whether any detector matched.
func (d Detection) Candidate() bool {
	return d != 0
}

// String lists the matched detectors, comma separated.
func (d Detection) String() string {
	if d == 0 {
		return "none"
	}
	names := []struct {
		flag Detection
		name string
	}{
		{DetectOptionHeader, "option"},
		{DetectBoldHeader, "bold-header"},
		{DetectQuotedLine, "quote"},
		{DetectNumberedList, "numbered"},
	}
	out := ""
	for _, n := range names {
		if d.Has(n.flag) {
			if out != "" {
				out += ","
			}
			out += n.name
		}
	}
	return out
}
