// Package view renders transcripts of task responses for the terminal.
package view

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"chatfmt/internal/entity"
	"chatfmt/internal/model"
	"chatfmt/internal/pipeline"
	"chatfmt/internal/transcript"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Options defines the configurable parameters for rendering a view.
type Options struct {
	Path         string
	Format       string
	Wrap         int
	MaxEntries   int
	TaskArg      string
	ForceColor   bool
	ForceNoColor bool
	Out          io.Writer
	Err          io.Writer
	OutFile      *os.File
}

// Run renders a transcript according to the provided options.
func Run(opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	tasks, err := parseTaskArg(opts.TaskArg)
	if err != nil {
		return err
	}

	formatMode := strings.ToLower(opts.Format)
	if formatMode == "" {
		formatMode = "text"
	}
	switch formatMode {
	case "text", "chat", "html", "raw":
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}

	ring := newEntryRing(opts.MaxEntries)
	var entries []transcript.Entry
	warnings, err := transcript.IterateEntries(opts.Path, func(entry transcript.Entry) error {
		if tasks != nil {
			if _, ok := tasks[entry.Response.Task]; !ok {
				return nil
			}
		}
		if opts.MaxEntries > 0 {
			ring.push(entry)
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	for _, warn := range warnings {
		fmt.Fprintf(opts.Err, "warning: %v\n", warn) //nolint:errcheck
	}
	if err != nil {
		return err
	}
	if opts.MaxEntries > 0 {
		entries = ring.slice()
	}

	switch formatMode {
	case "raw":
		for _, entry := range entries {
			if _, err := fmt.Fprintln(opts.Out, entry.Raw); err != nil {
				return err
			}
		}
		return nil

	case "html":
		for _, entry := range entries {
			markup, err := entryMarkup(entry)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(opts.Out, markup); err != nil {
				return err
			}
		}
		return nil

	case "text":
		useColor := resolveColorChoice(opts)
		for idx, entry := range entries {
			if idx > 0 {
				fmt.Fprintln(opts.Out) //nolint:errcheck
			}
			if err := printEntry(opts.Out, entry, idx+1, opts.Wrap, useColor); err != nil {
				return err
			}
		}
		return nil

	default:
		colorEnabled := resolveColorChoice(opts)
		width := determineWidth(opts.OutFile, opts.Wrap)

		var messages []message
		for _, entry := range entries {
			msgs, err := entryMessages(entry)
			if err != nil {
				return err
			}
			messages = append(messages, msgs...)
		}
		if len(messages) == 0 {
			return nil
		}

		lines := renderChatTranscript(messages, width, colorEnabled)
		if opts.OutFile != nil && isatty.IsTerminal(opts.OutFile.Fd()) {
			return pipeThroughPager(lines, colorEnabled)
		}
		return writeLines(opts.Out, lines)
	}
}

func parseTaskArg(arg string) (map[model.TaskKind]struct{}, error) {
	values := parseCSV(arg)
	if len(values) == 0 {
		return nil, nil
	}
	if len(values) == 1 && values[0] == "all" {
		return nil, nil
	}

	set := make(map[model.TaskKind]struct{}, len(values))
	for _, token := range values {
		kind, err := model.ParseTaskKind(token)
		if err != nil {
			return nil, err
		}
		set[kind] = struct{}{}
	}
	return set, nil
}

func parseCSV(arg string) []string {
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	parts := strings.Split(arg, ",")
	output := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(strings.ToLower(part))
		if token != "" {
			output = append(output, token)
		}
	}
	return output
}

// aiLabel is the sender label for a response, e.g. "AI Assistant (Q&A)".
func aiLabel(kind model.TaskKind) string {
	if name := kind.DisplayName(); name != "" {
		return "AI Assistant (" + name + ")"
	}
	return "AI Assistant"
}

// bodyLines returns the terminal lines for a formatted response. Each block
// of a multi-post response gets its own "Post N" heading.
func bodyLines(out pipeline.Output) []string {
	switch v := out.(type) {
	case pipeline.TextOutput:
		texts := v.Texts()
		if !v.Envelope.IsMultiPost {
			return texts
		}
		lines := make([]string, 0, len(texts)*2)
		for i, text := range texts {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, fmt.Sprintf("── Post %d ──", v.Envelope.Blocks[i].Index), text)
		}
		return lines
	case pipeline.ImageOutput:
		switch c := v.Classification.(type) {
		case model.ImageError:
			return []string{c.Message}
		case model.ImagePayload:
			return []string{fmt.Sprintf("[image: %d base64 chars]", len(c.Base64))}
		}
	}
	return nil
}

func entryMessages(entry transcript.Entry) ([]message, error) {
	out, err := pipeline.FormatResponse(entry.Response)
	if err != nil {
		return nil, err
	}

	var msgs []message
	if prompt := strings.TrimSpace(entry.Prompt); prompt != "" {
		msgs = append(msgs, message{
			role:      roleUser,
			label:     "You",
			timestamp: entry.Timestamp,
			lines:     strings.Split(prompt, "\n"),
		})
	}
	msgs = append(msgs, message{
		role:      roleAI,
		label:     aiLabel(entry.Response.Task),
		timestamp: entry.Timestamp,
		lines:     bodyLines(out),
	})
	return msgs, nil
}

func entryMarkup(entry transcript.Entry) (string, error) {
	out, err := pipeline.FormatResponse(entry.Response)
	if err != nil {
		return "", err
	}
	ts := ""
	if !entry.Timestamp.IsZero() {
		ts = entry.Timestamp.Format("15:04")
	}
	return `<div class="message ai-message"><div class="message-content">` +
		`<div class="message-header"><h4>` + entity.Escape(aiLabel(entry.Response.Task)) + `</h4>` +
		`<span class="message-timestamp">` + ts + `</span></div>` +
		out.Markup() +
		`</div></div>`, nil
}

type entryRing struct {
	data   []transcript.Entry
	start  int
	length int
}

func newEntryRing(capacity int) *entryRing {
	if capacity <= 0 {
		return &entryRing{}
	}
	return &entryRing{data: make([]transcript.Entry, capacity)}
}

func (r *entryRing) push(entry transcript.Entry) {
	if len(r.data) == 0 {
		return
	}
	idx := (r.start + r.length) % len(r.data)
	r.data[idx] = entry
	if r.length < len(r.data) {
		r.length++
		return
	}
	r.start = (r.start + 1) % len(r.data)
}

func (r *entryRing) slice() []transcript.Entry {
	if r.length == 0 {
		return nil
	}
	result := make([]transcript.Entry, r.length)
	for i := 0; i < r.length; i++ {
		result[i] = r.data[(r.start+i)%len(r.data)]
	}
	return result
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func pipeThroughPager(lines []string, colorEnabled bool) error {
	text := strings.Join(lines, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	pagerCmd := os.Getenv("PAGER")
	var cmd *exec.Cmd
	if pagerCmd == "" {
		args := []string{"less"}
		if colorEnabled {
			args = append(args, "-R")
		}
		cmd = exec.Command(args[0], args[1:]...) // #nosec G204
	} else {
		cmd = exec.Command("sh", "-c", pagerCmd) // #nosec G204
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pager pipe: %w", err)
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, text) //nolint:errcheck
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func printEntry(out io.Writer, entry transcript.Entry, index int, wrap int, useColor bool) error {
	result, err := pipeline.FormatResponse(entry.Response)
	if err != nil {
		return err
	}

	ts := "-"
	if !entry.Timestamp.IsZero() {
		ts = entry.Timestamp.Format(time.RFC3339)
	}
	task := entry.Response.Task.String()
	headerPlain := fmt.Sprintf("[#%03d] %s | %s", index, task, ts)

	indexText := fmt.Sprintf("#%03d", index)
	taskText := task
	tsText := ts
	separator := "|"

	if useColor {
		indexText = colorize(true, ansiBoldWhite, indexText)
		taskText = colorize(true, roleColor(roleAI), taskText)
		tsText = colorize(true, ansiTimestamp, tsText)
		separator = colorize(true, ansiSeparator, "|")
	}

	fmt.Fprintf(out, "[%s] %s %s %s\n", indexText, taskText, separator, tsText) //nolint:errcheck
	fmt.Fprintln(out, strings.Repeat("-", len(headerPlain)))                    //nolint:errcheck

	linePrefix := "| "
	emptyPrefix := "|"
	if useColor {
		separatorColor := colorize(true, ansiSeparator, "|")
		linePrefix = separatorColor + " "
		emptyPrefix = separatorColor
	}

	if prompt := strings.TrimSpace(entry.Prompt); prompt != "" {
		promptLabel := "> "
		if useColor {
			promptLabel = colorize(true, roleColor(roleUser), promptLabel)
		}
		for _, line := range wrapWords(prompt, wrap) {
			fmt.Fprintf(out, "%s%s%s\n", linePrefix, promptLabel, line) //nolint:errcheck
		}
	}

	lines := bodyLines(result)
	if len(lines) == 0 {
		fmt.Fprintf(out, "%s%s\n", linePrefix, "(no content)") //nolint:errcheck
		return nil
	}
	for _, line := range lines {
		if line == "" {
			fmt.Fprintln(out, emptyPrefix) //nolint:errcheck
			continue
		}
		for _, wrapped := range wrapWords(line, wrap) {
			fmt.Fprintf(out, "%s%s\n", linePrefix, wrapped) //nolint:errcheck
		}
	}
	return nil
}

// wrapWords breaks text on whitespace so no line exceeds width runes.
func wrapWords(text string, width int) []string {
	if width <= 0 || len([]rune(text)) <= width {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len([]rune(current))+1+len([]rune(word)) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	return append(lines, current)
}

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiTimestamp = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiAssistant = "\x1b[38;5;44m"
	ansiUser      = "\x1b[38;5;220m"
)

func colorize(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return code + text + ansiReset
}

func roleColor(role string) string {
	switch role {
	case roleAI:
		return ansiAssistant
	case roleUser:
		return ansiUser
	default:
		return ansiSeparator
	}
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
