// Package imageresult classifies image-generation task results and renders
// them for display.
package imageresult

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"chatfmt/internal/entity"
	"chatfmt/internal/model"
)

// ErrInvalidPayload is returned when a payload is not valid base64.
var ErrInvalidPayload = errors.New("invalid base64 image payload")

// Classify reports whether result describes a failed generation or carries
// base64 image data. A result is an error when it starts with "Error" or
// contains "simulated" or "failed". The payload is not validated here.
func Classify(result string) model.ImageClassification {
	if strings.HasPrefix(result, "Error") ||
		strings.Contains(result, "simulated") ||
		strings.Contains(result, "failed") {
		return model.ImageError{Message: result}
	}
	return model.ImagePayload{Base64: result}
}

// Decode returns the image bytes of p.
func Decode(p model.ImagePayload) ([]byte, error) {
	data := strings.Join(strings.Fields(p.Base64), "")
	if data == "" {
		return nil, ErrInvalidPayload
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return raw, nil
}

// Markup renders a classification for the chat surface. Error messages are
// escaped; payloads become an inline image with a download link.
func Markup(c model.ImageClassification) string {
	switch v := c.(type) {
	case model.ImageError:
		return `<p class="image-error">` + entity.Escape(v.Message) + `</p>`
	case model.ImagePayload:
		src := "data:image/png;base64," + entity.Escape(strings.TrimSpace(v.Base64))
		return `<div class="generated-image">` +
			`<img src="` + src + `" alt="Generated image">` +
			`<a class="download-image-btn" href="` + src + `" download="generated-image.png">Download</a>` +
			`</div>`
	default:
		return ""
	}
}
