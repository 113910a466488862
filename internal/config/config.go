// Package config loads chatfmt defaults from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chatfmt/internal/model"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// AppName names the XDG directories used by chatfmt.
	AppName = "chatfmt"

	// DefaultConfigFile is looked up in the working directory.
	DefaultConfigFile = ".chatfmt.yaml"

	// DefaultTask is used for raw text input without a task.
	DefaultTask = "content_generation"

	// DefaultFormat is the render output format.
	DefaultFormat = "html"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	// ErrConfigNotFound is returned when an explicit configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidWrap is returned when the wrap width is negative.
	ErrInvalidWrap = errors.New("invalid wrap: must be non-negative")

	// ErrInvalidColor is returned for color modes other than auto, always and never.
	ErrInvalidColor = errors.New("invalid color: must be auto, always or never")
)

// Config holds defaults that flags may override.
type Config struct {
	Task           string `yaml:"task"`
	Format         string `yaml:"format"`
	Wrap           int    `yaml:"wrap"`
	Color          string `yaml:"color"`
	TranscriptsDir string `yaml:"transcripts_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Task:           DefaultTask,
		Format:         DefaultFormat,
		Color:          ColorAuto,
		TranscriptsDir: filepath.Join(xdg.DataHome, AppName, "transcripts"),
	}
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := model.ParseTaskKind(c.Task); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	if c.Wrap < 0 {
		return ErrInvalidWrap
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return ErrInvalidColor
	}
	return nil
}

// TaskKind returns the configured task as a TaskKind.
func (c Config) TaskKind() (model.TaskKind, error) {
	return model.ParseTaskKind(c.Task)
}

// LoadFile reads a YAML file over base. Fields absent from the file keep
// their base values.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user or a fixed lookup
	if err != nil {
		if os.IsNotExist(err) {
			return base, ErrConfigNotFound
		}
		return base, fmt.Errorf("read config: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FindConfigFile returns the configuration file to use:
//  1. explicit, when set
//  2. .chatfmt.yaml in the working directory
//  3. config.yaml under $XDG_CONFIG_HOME/chatfmt
//
// It returns an empty string when no file exists.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Load resolves configuration from defaults, the config file and the
// environment, in increasing priority. A missing explicit file is an error;
// a missing discovered file is not.
func Load(explicit string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := FindConfigFile(explicit); path != "" {
		loaded, err := LoadFile(path, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv("CHATFMT_TASK")); v != "" {
		cfg.Task = v
	}
	if v := strings.TrimSpace(getenv("CHATFMT_FORMAT")); v != "" {
		cfg.Format = v
	}
	if v := strings.TrimSpace(getenv("CHATFMT_WRAP")); v != "" {
		wrap, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid CHATFMT_WRAP value: %w", err)
		}
		cfg.Wrap = wrap
	}
	if v := strings.TrimSpace(getenv("CHATFMT_TRANSCRIPTS_DIR")); v != "" {
		cfg.TranscriptsDir = v
	}
	if getenv("NO_COLOR") != "" && cfg.Color == ColorAuto {
		cfg.Color = ColorNever
	}

	return cfg, cfg.Validate()
}
