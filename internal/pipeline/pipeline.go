// Package pipeline binds a task kind to its formatting path: text results go
// through decode, escape, inline markdown, segmentation and rendering; image
// results go through the classifier.
package pipeline

import (
	"fmt"

	"chatfmt/internal/entity"
	"chatfmt/internal/format"
	"chatfmt/internal/imageresult"
	"chatfmt/internal/markdown"
	"chatfmt/internal/model"
	"chatfmt/internal/segment"
)

// Output is the structured result handed to a display layer. It is either
// TextOutput or ImageOutput.
type Output interface {
	Kind() model.TaskKind
	Markup() string
}

// TextOutput is the formatted result of a text task.
type TextOutput struct {
	Task     model.TaskKind
	Envelope model.ContentEnvelope
	HTML     string
}

// Kind implements Output.
func (o TextOutput) Kind() model.TaskKind { return o.Task }

// Markup implements Output.
func (o TextOutput) Markup() string { return o.HTML }

// Texts returns the clipboard text of each block.
func (o TextOutput) Texts() []string { return format.BlockTexts(o.Envelope) }

// ImageOutput is the classified result of an image task.
type ImageOutput struct {
	Classification model.ImageClassification
	HTML           string
}

// Kind implements Output.
func (o ImageOutput) Kind() model.TaskKind { return model.TaskImageGeneration }

// Markup implements Output.
func (o ImageOutput) Markup() string { return o.HTML }

// Format runs raw through the path for kind. It fails only when kind is not
// a declared TaskKind.
func Format(kind model.TaskKind, raw string) (Output, error) {
	switch kind {
	case model.TaskQA, model.TaskContentGeneration, model.TaskLatestAnswer:
		return FormatText(kind, raw), nil
	case model.TaskImageGeneration:
		return FormatImage(raw), nil
	default:
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownTaskKind, int(kind))
	}
}

// FormatResponse formats a decoded task API response.
func FormatResponse(resp model.TaskResponse) (Output, error) {
	return Format(resp.Task, resp.Result)
}

// FormatText formats a text result.
func FormatText(kind model.TaskKind, raw string) TextOutput {
	env := Segment(raw)
	return TextOutput{
		Task:     kind,
		Envelope: env,
		HTML:     format.Render(env),
	}
}

// Segment returns the content envelope for a raw text result without
// rendering it.
func Segment(raw string) model.ContentEnvelope {
	escaped := entity.Escape(entity.Decode(raw))
	return segment.Split(markdown.Inline(escaped))
}

// FormatImage classifies an image result.
func FormatImage(raw string) ImageOutput {
	c := imageresult.Classify(raw)
	return ImageOutput{
		Classification: c,
		HTML:           imageresult.Markup(c),
	}
}
