// Package config loads mdlchef settings from a JSON file and command-line
// flags. Flags override the file; the file overrides the defaults.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xob0t/mdlchef/pkg/caption"
	"github.com/xob0t/mdlchef/pkg/formats"
)

// DefaultPath is the settings file read when -config is not given. It is
// optional; an explicit -config path must exist.
const DefaultPath = "mdlchef.json"

// Config holds process settings.
type Config struct {
	RepoFolder   string `json:"repo_folder"`
	RepoName     string `json:"repo_name"`
	Listen       string `json:"listen"`
	FillColor    string `json:"fill_color"`
	OutlineColor string `json:"outline_color"`
	LogLevel     string `json:"log_level"`
	Uppercase    bool   `json:"uppercase"`

	// MemeRepoFolder is the older spelling of RepoFolder.
	MemeRepoFolder string `json:"meme_repo_folder,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		RepoFolder:   "memes",
		RepoName:     formats.DefaultName,
		Listen:       ":8080",
		FillColor:    "#ffffff",
		OutlineColor: "#000000",
		LogLevel:     "info",
	}
}

// LoadFile overlays the settings in path onto c. Keys missing from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := c.Decode(strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Decode overlays JSON settings read from r onto c. Unknown keys are
// rejected so typos do not go unnoticed.
func (c *Config) Decode(r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return err
	}
	if c.MemeRepoFolder != "" {
		c.RepoFolder = c.MemeRepoFolder
		c.MemeRepoFolder = ""
	}
	return nil
}

// Validate checks colours, log level and names.
func (c Config) Validate() error {
	var errs []error
	if _, _, err := c.Colors(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.RepoName != "" && strings.ContainsAny(c.RepoName, ". ") {
		errs = append(errs, fmt.Errorf("repo_name %q must not contain dots or spaces", c.RepoName))
	}
	return errors.Join(errs...)
}

// Colors parses the caption fill and outline colours.
func (c Config) Colors() (fill, outline color.Color, err error) {
	f, err := caption.ParseColor(c.FillColor)
	if err != nil {
		return nil, nil, fmt.Errorf("fill_color: %w", err)
	}
	o, err := caption.ParseColor(c.OutlineColor)
	if err != nil {
		return nil, nil, fmt.Errorf("outline_color: %w", err)
	}
	return f, o, nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Logger builds a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Flags binds the settings to a flag set. Call Resolve after fs.Parse.
type Flags struct {
	fs     *flag.FlagSet
	path   string
	values Config
}

// BindFlags registers -config and one flag per setting on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	d := Default()
	fs.StringVar(&f.path, "config", DefaultPath, "Settings JSON file")
	fs.StringVar(&f.values.RepoFolder, "repo", d.RepoFolder, "Format repository directory or .zip")
	fs.StringVar(&f.values.RepoName, "repo-name", d.RepoName, "Format id prefix")
	fs.StringVar(&f.values.Listen, "listen", d.Listen, "HTTP listen address (serve)")
	fs.StringVar(&f.values.FillColor, "fill", d.FillColor, "Caption fill color (#rrggbb or #rrggbbaa)")
	fs.StringVar(&f.values.OutlineColor, "outline", d.OutlineColor, "Caption outline color")
	fs.StringVar(&f.values.LogLevel, "log-level", d.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&f.values.Uppercase, "upper", d.Uppercase, "Upper-case all caption text")
	return f
}

// Resolve returns defaults, overlaid by the settings file, overlaid by the
// flags that were set explicitly.
func (f *Flags) Resolve() (Config, error) {
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	cfg := Default()
	if err := cfg.LoadFile(f.path); err != nil {
		if set["config"] || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if set["repo"] {
		cfg.RepoFolder = f.values.RepoFolder
	}
	if set["repo-name"] {
		cfg.RepoName = f.values.RepoName
	}
	if set["listen"] {
		cfg.Listen = f.values.Listen
	}
	if set["fill"] {
		cfg.FillColor = f.values.FillColor
	}
	if set["outline"] {
		cfg.OutlineColor = f.values.OutlineColor
	}
	if set["log-level"] {
		cfg.LogLevel = f.values.LogLevel
	}
	if set["upper"] {
		cfg.Uppercase = f.values.Uppercase
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
