// Package main provides the chatfmt CLI for formatting chat task responses.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chatfmt/internal/clipboard"
	"chatfmt/internal/config"
	"chatfmt/internal/format"
	"chatfmt/internal/imageresult"
	"chatfmt/internal/model"
	"chatfmt/internal/pipeline"
	"chatfmt/internal/store"
	"chatfmt/internal/transcript"
	"chatfmt/internal/view"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	cfg        = config.Default()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatfmt",
		Short:         "Format chat task responses into safe markup and copyable posts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(configPath, os.Getenv)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default: ./.chatfmt.yaml or $XDG_CONFIG_HOME/chatfmt/config.yaml)")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newCopyCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newViewCmd())
	root.AddCommand(newListCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chatfmt: %v\n", err)
		os.Exit(1)
	}
}

// inputMode describes how a command reads its response.
type inputMode struct {
	raw  bool
	task string
}

// taskKind returns the task for raw input: the flag when given, otherwise
// the configured default.
func (s inputMode) taskKind() (model.TaskKind, error) {
	if s.task != "" {
		return model.ParseTaskKind(s.task)
	}
	return cfg.TaskKind()
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// readResponse decodes the command input as a task API response, or wraps
// it as a raw result when input.raw or input.task is set.
func readResponse(cmd *cobra.Command, args []string, input inputMode) (model.TaskResponse, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return model.TaskResponse{}, err
	}
	if input.raw || input.task != "" {
		kind, err := input.taskKind()
		if err != nil {
			return model.TaskResponse{}, err
		}
		return model.TaskResponse{Task: kind, Result: strings.TrimRight(string(data), "\r\n")}, nil
	}
	return transcript.DecodeResponse(data)
}

func bindInputFlags(cmd *cobra.Command, input *inputMode) {
	flags := cmd.Flags()
	flags.BoolVar(&input.raw, "raw", false, "treat input as a raw result instead of a JSON response")
	flags.StringVar(&input.task, "task", "", "task kind for raw input: qa, content_generation, image_generation, latest_answer (implies --raw)")
}

func describeImage(c model.ImageClassification) string {
	switch v := c.(type) {
	case model.ImageError:
		return "error: " + v.Message
	case model.ImagePayload:
		return fmt.Sprintf("image: %d base64 chars", len(v.Base64))
	default:
		return ""
	}
}

type imageRecord struct {
	Task        model.TaskKind `json:"task"`
	Error       string         `json:"error,omitempty"`
	Base64Chars int            `json:"base64_chars,omitempty"`
	HTML        string         `json:"html"`
}

type textRecord struct {
	Task        model.TaskKind       `json:"task"`
	IsMultiPost bool                 `json:"is_multi_post"`
	Candidate   bool                 `json:"multi_post_candidate"`
	Hints       string               `json:"hints"`
	HTML        string               `json:"html"`
	Blocks      []format.BlockRecord `json:"blocks"`
}

func newRenderCmd() *cobra.Command {
	var (
		input        inputMode
		formatFlag   string
		blocksFormat string
		noHeader     bool
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Format a task response into chat markup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := readResponse(cmd, args, input)
			if err != nil {
				return err
			}
			result, err := pipeline.FormatResponse(resp)
			if err != nil {
				return err
			}

			mode := formatFlag
			if !cmd.Flags().Changed("format") {
				mode = cfg.Format
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(mode) {
			case "", "html":
				_, err := fmt.Fprintln(out, result.Markup())
				return err
			case "text":
				return writeText(out, result)
			case "blocks":
				text, ok := result.(pipeline.TextOutput)
				if !ok {
					_, err := fmt.Fprintln(out, describeImage(result.(pipeline.ImageOutput).Classification))
					return err
				}
				return format.WriteBlocks(out, text.Envelope, !noHeader, blocksFormat)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(jsonRecord(result))
			default:
				return fmt.Errorf("unsupported format: %s", mode)
			}
		},
	}

	bindInputFlags(cmd, &input)
	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", config.DefaultFormat, "output format: html, text, blocks, or json")
	flags.StringVar(&blocksFormat, "blocks-format", "table", "block listing format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for block listings")

	return cmd
}

func writeText(out io.Writer, result pipeline.Output) error {
	switch v := result.(type) {
	case pipeline.TextOutput:
		for i, text := range v.Texts() {
			if i > 0 {
				if _, err := fmt.Fprintln(out); err != nil {
					return err
				}
			}
			if v.Envelope.IsMultiPost {
				if _, err := fmt.Fprintf(out, "Post %d\n", v.Envelope.Blocks[i].Index); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(out, text); err != nil {
				return err
			}
		}
		return nil
	case pipeline.ImageOutput:
		_, err := fmt.Fprintln(out, describeImage(v.Classification))
		return err
	default:
		return fmt.Errorf("unexpected output %T", result)
	}
}

func jsonRecord(result pipeline.Output) any {
	switch v := result.(type) {
	case pipeline.TextOutput:
		return textRecord{
			Task:        v.Task,
			IsMultiPost: v.Envelope.IsMultiPost,
			Candidate:   v.Envelope.Hints.Candidate(),
			Hints:       v.Envelope.Hints.String(),
			HTML:        v.HTML,
			Blocks:      format.Records(v.Envelope),
		}
	case pipeline.ImageOutput:
		rec := imageRecord{Task: v.Kind(), HTML: v.HTML}
		switch c := v.Classification.(type) {
		case model.ImageError:
			rec.Error = c.Message
		case model.ImagePayload:
			rec.Base64Chars = len(c.Base64)
		}
		return rec
	default:
		return nil
	}
}

func newCopyCmd() *cobra.Command {
	var (
		input    inputMode
		block    int
		toStdout bool
	)

	cmd := &cobra.Command{
		Use:   "copy [file]",
		Short: "Copy the plain text of one post to the clipboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := readResponse(cmd, args, input)
			if err != nil {
				return err
			}
			result, err := pipeline.FormatResponse(resp)
			if err != nil {
				return err
			}
			text, ok := result.(pipeline.TextOutput)
			if !ok {
				return fmt.Errorf("%s responses have no text blocks", resp.Task)
			}

			texts := text.Texts()
			if block < 1 || block > len(texts) {
				return fmt.Errorf("block %d out of range (response has %d)", block, len(texts))
			}
			payload := texts[block-1]

			out := cmd.OutOrStdout()
			if toStdout {
				_, err := fmt.Fprintln(out, payload)
				return err
			}

			writer := clipboard.Fallback{
				clipboard.System{},
				clipboard.Terminal{Out: cmd.ErrOrStderr()},
			}
			if clipboard.Copy(writer, payload) {
				fmt.Fprintln(out, "copied") //nolint:errcheck
			} else {
				fmt.Fprintln(out, "copy failed") //nolint:errcheck
			}
			return nil
		},
	}

	bindInputFlags(cmd, &input)
	flags := cmd.Flags()
	flags.IntVar(&block, "block", 1, "1-based index of the block to copy")
	flags.BoolVar(&toStdout, "stdout", false, "print the block text instead of using the clipboard")

	return cmd
}

func newClassifyCmd() *cobra.Command {
	var savePath string

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify an image generation result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			raw := strings.TrimSpace(string(data))
			if resp, err := transcript.DecodeResponse(data); err == nil {
				raw = resp.Result
			}

			c := imageresult.Classify(raw)
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), describeImage(c)); err != nil {
				return err
			}

			if savePath == "" {
				return nil
			}
			payload, ok := c.(model.ImagePayload)
			if !ok {
				return errors.New("nothing to save: result is an error")
			}
			img, err := imageresult.Decode(payload)
			if err != nil {
				return err
			}
			if err := os.WriteFile(savePath, img, 0o600); err != nil {
				return fmt.Errorf("save image: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&savePath, "save", "", "decode the image and write it to the given path")
	return cmd
}

func newViewCmd() *cobra.Command {
	var (
		taskArg        string
		wrap           int
		maxEntries     int
		transcriptsDir string
		formatFlag     string
		forceColor     bool
		forceNoColor   bool
	)

	cmd := &cobra.Command{
		Use:   "view <transcript-name-or-path>",
		Short: "Render the responses of a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}
			if transcriptsDir == "" {
				transcriptsDir = cfg.TranscriptsDir
			}
			path, err := resolveTranscriptPath(args[0], transcriptsDir)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("wrap") {
				wrap = cfg.Wrap
			}
			if !forceColor && !forceNoColor {
				forceColor = cfg.Color == config.ColorAlways
				forceNoColor = cfg.Color == config.ColorNever
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return view.Run(view.Options{
				Path:         path,
				Format:       formatFlag,
				Wrap:         wrap,
				MaxEntries:   maxEntries,
				TaskArg:      taskArg,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				Out:          out,
				Err:          cmd.ErrOrStderr(),
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&taskArg, "task", "T", "", "comma-separated task kinds to include (default: all)")
	flags.IntVar(&wrap, "wrap", 0, "wrap message body at the given column width")
	flags.IntVar(&maxEntries, "max", 0, "show only the most recent N responses (0 means no limit)")
	flags.StringVar(&transcriptsDir, "transcripts-dir", "", "override the transcripts directory")
	flags.StringVar(&formatFlag, "format", "text", "output format: text, chat, html, or raw")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	return cmd
}

func resolveTranscriptPath(arg, root string) (string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return arg, nil
	}
	return store.FindTranscriptPath(root, arg)
}

func newListCmd() *cobra.Command {
	var (
		taskArg      string
		afterStr     string
		beforeStr    string
		limit        int
		formatFlag   string
		noHeader     bool
		summaryWidth int
	)

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List transcripts in reverse chronological order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cfg.TranscriptsDir
			if len(args) == 1 {
				root = args[0]
			}

			var after, before *time.Time
			if afterStr != "" {
				t, err := time.Parse(time.RFC3339, afterStr)
				if err != nil {
					return fmt.Errorf("invalid --after value: %w", err)
				}
				after = &t
			}
			if beforeStr != "" {
				t, err := time.Parse(time.RFC3339, beforeStr)
				if err != nil {
					return fmt.Errorf("invalid --before value: %w", err)
				}
				before = &t
			}

			opts := store.ListOptions{
				Root:       root,
				After:      after,
				Before:     before,
				Limit:      limit,
				MaxSummary: summaryWidth,
			}
			if taskArg != "" {
				kind, err := model.ParseTaskKind(taskArg)
				if err != nil {
					return err
				}
				opts.Task = kind
			}

			result, err := store.ListTranscripts(opts)
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			return format.WriteSummaries(cmd.OutOrStdout(), result.Summaries, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&taskArg, "task", "", "only list transcripts containing responses of this task kind")
	flags.StringVar(&afterStr, "after", "", "include transcripts starting on/after the given RFC3339 timestamp")
	flags.StringVar(&beforeStr, "before", "", "include transcripts starting on/before the given RFC3339 timestamp")
	flags.IntVar(&limit, "limit", 0, "limit number of transcripts returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for plain output")
	flags.IntVar(&summaryWidth, "summary-width", 160, "maximum characters included in the prompt column")

	return cmd
}
