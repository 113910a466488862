package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"chatfmt/internal/model"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// BlockRecord is the serialized form of one rendered block.
type BlockRecord struct {
	Index      int    `json:"index"`
	HTML       string `json:"html"`
	SourceText string `json:"source_text"`
	Text       string `json:"text"`
}

// Records converts an envelope into serializable block records.
func Records(env model.ContentEnvelope) []BlockRecord {
	records := make([]BlockRecord, 0, len(env.Blocks))
	for _, block := range env.Blocks {
		records = append(records, BlockRecord{
			Index:      block.Index,
			HTML:       RenderBlock(block, env.IsMultiPost),
			SourceText: block.SourceText,
			Text:       BlockText(block, env.IsMultiPost),
		})
	}
	return records
}

// WriteBlocks writes the blocks of env to w in the requested format.
func WriteBlocks(w io.Writer, env model.ContentEnvelope, includeHeader bool, format string) error {
	records := Records(env)
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeBlocksTable(w, records, includeHeader)
	case "plain":
		return writeBlocksPlain(w, records, includeHeader)
	case "json":
		return writeBlocksJSON(w, records)
	case "jsonl":
		return writeBlocksJSONL(w, records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeBlocksPlain(w io.Writer, records []BlockRecord, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "index\tchars\ttext"); err != nil {
			return err
		}
	}

	for _, rec := range records {
		line := fmt.Sprintf("%d\t%d\t%s", rec.Index, len([]rune(rec.Text)), escapeNewlines(rec.Text))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeBlocksJSON(w io.Writer, records []BlockRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeBlocksJSONL(w io.Writer, records []BlockRecord) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}

func writeBlocksTable(w io.Writer, records []BlockRecord, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Post", "Chars", "Text"})
	}

	for _, rec := range records {
		tw.AppendRow(table.Row{rec.Index, len([]rune(rec.Text)), escapeNewlines(rec.Text)})
	}

	if len(records) == 0 {
		tw.AppendRow(table.Row{"-", 0, "(no content)"})
	}

	_ = tw.Render()
	return nil
}
