package model

// ImageClassification is the outcome of inspecting an image-task result.
// It is either ImageError or ImagePayload.
type ImageClassification interface {
	isImageClassification()
}

// ImageError carries a result that reports a failed generation.
type ImageError struct {
	Message string
}

// ImagePayload carries a result treated as base64 image data.
type ImagePayload struct {
	Base64 string
}

func (ImageError) isImageClassification()   {}
func (ImagePayload) isImageClassification() {}
