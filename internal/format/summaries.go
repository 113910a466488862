package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"chatfmt/internal/transcript"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type summaryRecord struct {
	Path       string `json:"path"`
	StartedAt  string `json:"started_at"`
	Duration   string `json:"duration"`
	Responses  int    `json:"responses"`
	Images     int    `json:"images"`
	MultiPosts int    `json:"multi_posts"`
	Prompt     string `json:"prompt"`
}

// WriteSummaries writes transcript summaries to w in the requested format.
func WriteSummaries(w io.Writer, items []transcript.Summary, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeSummariesTable(w, items, includeHeader)
	case "plain":
		return writeSummariesPlain(w, items, includeHeader)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryRecords(items))
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, rec := range summaryRecords(items) {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func summaryRecords(items []transcript.Summary) []summaryRecord {
	records := make([]summaryRecord, 0, len(items))
	for _, item := range items {
		records = append(records, summaryRecord{
			Path:       item.Path,
			StartedAt:  formatTime(item.StartedAt),
			Duration:   formatDuration(item.StartedAt, item.LastAt),
			Responses:  item.Responses,
			Images:     item.Images,
			MultiPosts: item.MultiPosts,
			Prompt:     item.Prompt,
		})
	}
	return records
}

func writeSummariesPlain(w io.Writer, items []transcript.Summary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "started_at\tpath\tduration\tresponses\timages\tmulti_posts\tprompt"); err != nil {
			return err
		}
	}

	for _, rec := range summaryRecords(items) {
		line := fmt.Sprintf(
			"%s\t%s\t%s\t%d\t%d\t%d\t%s",
			rec.StartedAt,
			rec.Path,
			rec.Duration,
			rec.Responses,
			rec.Images,
			rec.MultiPosts,
			escapeNewlines(rec.Prompt),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesTable(w io.Writer, items []transcript.Summary, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 7, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Started", "Transcript", "Duration", "Responses", "Images", "Multi", "Prompt"})
	}

	for _, rec := range summaryRecords(items) {
		tw.AppendRow(table.Row{
			rec.StartedAt,
			rec.Path,
			rec.Duration,
			rec.Responses,
			rec.Images,
			rec.MultiPosts,
			escapeNewlines(rec.Prompt),
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no transcripts)", "00:00:00", 0, 0, 0, "-"})
	}

	_ = tw.Render()
	return nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func formatDuration(start, end time.Time) string {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return "00:00:00"
	}
	seconds := int(end.Sub(start).Seconds())
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
