// Package transcript reads task API responses from JSON documents and JSONL
// transcript files.
package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chatfmt/internal/model"
)

// ErrEmptyResponse is returned when a document has no task field.
var ErrEmptyResponse = errors.New("response has no task")

// Entry is one recorded exchange in a transcript.
type Entry struct {
	Line      int
	Timestamp time.Time
	Prompt    string
	Response  model.TaskResponse
	Raw       string
}

// Summary holds lightweight information about a transcript file.
type Summary struct {
	Path       string
	StartedAt  time.Time
	LastAt     time.Time
	Prompt     string
	Responses  int
	Images     int
	MultiPosts int
	Warnings   int
}

type rawRecord struct {
	Task      string `json:"task"`
	Result    string `json:"result"`
	Prompt    string `json:"prompt"`
	Timestamp string `json:"timestamp"`
}

// DecodeResponse decodes a single task API response body.
func DecodeResponse(data []byte) (model.TaskResponse, error) {
	var rec rawRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.TaskResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(rec.Task) == "" {
		return model.TaskResponse{}, ErrEmptyResponse
	}
	kind, err := model.ParseTaskKind(rec.Task)
	if err != nil {
		return model.TaskResponse{}, err
	}
	return model.TaskResponse{Task: kind, Result: rec.Result}, nil
}

// ReadResponse decodes a single response document from r.
func ReadResponse(r io.Reader) (model.TaskResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.TaskResponse{}, fmt.Errorf("read response: %w", err)
	}
	return DecodeResponse(data)
}

// IterateEntries walks through the transcript at path and calls fn for each
// decoded entry. Lines that cannot be decoded are skipped and returned as
// warnings. An error from fn stops iteration and is returned.
func IterateEntries(path string, fn func(Entry) error) ([]error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close() //nolint:errcheck

	var warnings []error
	scanner := newScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		recBytes := scanner.Bytes()
		if strings.TrimSpace(string(recBytes)) == "" {
			continue
		}
		entry, err := parseEntry(recBytes)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s:%d: %w", path, line, err))
			continue
		}
		entry.Line = line

		if err := fn(entry); err != nil {
			return warnings, err
		}
	}

	if err := scanner.Err(); err != nil {
		return warnings, fmt.Errorf("scan transcript: %w", err)
	}

	return warnings, nil
}

// Summarize reads the transcript at path and counts its responses. multiPost
// reports whether a text result splits into several posts; it may be nil.
func Summarize(path string, multiPost func(string) bool) (Summary, error) {
	summary := Summary{Path: path}
	warnings, err := IterateEntries(path, func(entry Entry) error {
		summary.Responses++
		if summary.Prompt == "" && entry.Prompt != "" {
			summary.Prompt = strings.TrimSpace(entry.Prompt)
		}
		if !entry.Timestamp.IsZero() {
			if summary.StartedAt.IsZero() || entry.Timestamp.Before(summary.StartedAt) {
				summary.StartedAt = entry.Timestamp
			}
			if entry.Timestamp.After(summary.LastAt) {
				summary.LastAt = entry.Timestamp
			}
		}
		switch entry.Response.Task {
		case model.TaskImageGeneration:
			summary.Images++
		default:
			if multiPost != nil && multiPost(entry.Response.Result) {
				summary.MultiPosts++
			}
		}
		return nil
	})
	summary.Warnings = len(warnings)
	return summary, err
}

func parseEntry(raw []byte) (Entry, error) {
	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	if strings.TrimSpace(rec.Task) == "" {
		return Entry{}, ErrEmptyResponse
	}
	kind, err := model.ParseTaskKind(rec.Task)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Prompt:   rec.Prompt,
		Response: model.TaskResponse{Task: kind, Result: rec.Result},
		Raw:      string(raw),
	}
	if rec.Timestamp != "" {
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			return Entry{}, fmt.Errorf("parse timestamp: %w", err)
		}
		entry.Timestamp = ts
	}
	return entry, nil
}

func newScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	// Image results carry whole base64 files on one line.
	const maxCapacity = 16 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}

func parseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
