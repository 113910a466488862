// Package store provides transcript enumeration and lookup.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"chatfmt/internal/model"
	"chatfmt/internal/pipeline"
	"chatfmt/internal/transcript"
)

var errStop = errors.New("stop iteration")

// ListOptions controls how transcripts are enumerated.
type ListOptions struct {
	Root       string
	Task       model.TaskKind
	After      *time.Time
	Before     *time.Time
	Limit      int
	MaxSummary int
}

// ListResult contains transcript summaries and non-fatal warnings.
type ListResult struct {
	Summaries []transcript.Summary
	Warnings  []error
}

// ListTranscripts enumerates transcripts under Root according to opts, newest
// first.
func ListTranscripts(opts ListOptions) (ListResult, error) {
	root := opts.Root
	if root == "" {
		return ListResult{}, errors.New("root directory is required")
	}

	var result ListResult

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}

		if opts.Task.Valid() {
			found, err := containsTask(path, opts.Task)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("scan %s: %w", path, err))
				return nil
			}
			if !found {
				return nil
			}
		}

		summary, err := transcript.Summarize(path, isMultiPost)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("summarize %s: %w", path, err))
			return nil
		}
		if summary.Warnings > 0 {
			result.Warnings = append(result.Warnings, fmt.Errorf("%s: skipped %d malformed entries", path, summary.Warnings))
		}

		if opts.After != nil && summary.StartedAt.Before(*opts.After) {
			return nil
		}
		if opts.Before != nil && summary.StartedAt.After(*opts.Before) {
			return nil
		}

		if opts.MaxSummary > 0 && len(summary.Prompt) > opts.MaxSummary {
			summary.Prompt = truncate(summary.Prompt, opts.MaxSummary)
		}

		result.Summaries = append(result.Summaries, summary)
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.SliceStable(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].StartedAt.After(result.Summaries[j].StartedAt)
	})

	if opts.Limit > 0 && len(result.Summaries) > opts.Limit {
		result.Summaries = result.Summaries[:opts.Limit]
	}

	return result, nil
}

func isMultiPost(result string) bool {
	return pipeline.Segment(result).IsMultiPost
}

func containsTask(path string, kind model.TaskKind) (bool, error) {
	found := false
	_, err := transcript.IterateEntries(path, func(entry transcript.Entry) error {
		if entry.Response.Task == kind {
			found = true
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return false, err
	}
	return found, nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}

// FindTranscriptPath searches root for a transcript whose file name, without
// the .jsonl extension, equals name.
func FindTranscriptPath(root, name string) (string, error) {
	if root == "" {
		return "", errors.New("root directory is required")
	}
	if name == "" {
		return "", errors.New("transcript name is required")
	}
	name = strings.TrimSuffix(name, ".jsonl")

	var matched string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		if strings.TrimSuffix(d.Name(), ".jsonl") == name {
			matched = path
			return errStop
		}
		return nil
	})

	if matched != "" {
		return matched, nil
	}
	if err != nil && !errors.Is(err, errStop) {
		return "", err
	}
	return "", fmt.Errorf("transcript %s not found under %s", name, root)
}
