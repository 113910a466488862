package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTaskKind is returned when a task name is not one of the known kinds.
var ErrUnknownTaskKind = errors.New("unknown task kind")

// TaskKind identifies which task produced a result.
type TaskKind int

const (
	// TaskQA answers a question, optionally with context.
	TaskQA TaskKind = iota + 1
	// TaskContentGeneration produces social posts for a platform.
	TaskContentGeneration
	// TaskImageGeneration returns a base64 image or an error string.
	TaskImageGeneration
	// TaskLatestAnswer returns the most recently stored answer.
	TaskLatestAnswer
)

// TaskKinds lists every kind in display order.
var TaskKinds = []TaskKind{TaskQA, TaskContentGeneration, TaskImageGeneration, TaskLatestAnswer}

// ParseTaskKind maps the API's task name to a TaskKind.
func ParseTaskKind(name string) (TaskKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "qa":
		return TaskQA, nil
	case "content_generation":
		return TaskContentGeneration, nil
	case "image_generation":
		return TaskImageGeneration, nil
	case "latest_answer":
		return TaskLatestAnswer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTaskKind, name)
	}
}

// String returns the wire name used by the task API.
func (k TaskKind) String() string {
	switch k {
	case TaskQA:
		return "qa"
	case TaskContentGeneration:
		return "content_generation"
	case TaskImageGeneration:
		return "image_generation"
	case TaskLatestAnswer:
		return "latest_answer"
	default:
		return fmt.Sprintf("TaskKind(%d)", int(k))
	}
}

// DisplayName returns the label shown next to the sender name.
func (k TaskKind) DisplayName() string {
	switch k {
	case TaskQA:
		return "Q&A"
	case TaskContentGeneration:
		return "Content Generation"
	case TaskImageGeneration:
		return "Image Generation"
	case TaskLatestAnswer:
		return "Latest Answer"
	default:
		return ""
	}
}

// Valid reports whether k is one of the declared kinds.
func (k TaskKind) Valid() bool {
	return k >= TaskQA && k <= TaskLatestAnswer
}

// MarshalText implements encoding.TextMarshaler.
func (k TaskKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTaskKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TaskKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTaskKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TaskResponse is the success body delivered by the task API.
type TaskResponse struct {
	Task   TaskKind `json:"task"`
	Result string   `json:"result"`
}
