// Package config resolves InkNote settings from defaults, the environment,
// a share link and command line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"fyne.io/fyne/v2"

	"InkNote/internal/state"
)

const (
	// LinkScheme prefixes share links: inknote://host:port/<noteId>
	LinkScheme       = "inknote://"
	DefaultServerURL = "http://10.0.2.2:3001"

	EnvServer = "INKNOTE_SERVER"
	EnvNote   = "INKNOTE_NOTE"

	prefServer = "server"
	prefNote   = "note"
)

var ErrMissingNote = errors.New("note id is required")

type Config struct {
	ServerURL string
	NoteID    string
	Image     string

	Color string
	Width float64
	Tool  string

	BatchSize         int
	FlushOnStrokeEnd  bool
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	FetchTimeout    time.Duration
	MeasureDelay    time.Duration
	WatchImage      bool
	Discover        bool
	DiscoverTimeout time.Duration

	LogLevel string

	serverSet bool
}

func Default() Config {
	return Config{
		ServerURL:         DefaultServerURL,
		Color:             "#FF0000",
		Width:             2,
		Tool:              string(state.StrokePen),
		BatchSize:         10,
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		FetchTimeout:      20 * time.Second,
		MeasureDelay:      100 * time.Millisecond,
		WatchImage:        true,
		DiscoverTimeout:   3 * time.Second,
		LogLevel:          "info",
	}
}

// Parse builds a Config from args (without the program name). getenv may be
// nil.
func Parse(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if getenv != nil {
		if v := getenv(EnvServer); v != "" {
			cfg.ServerURL = v
			cfg.serverSet = true
		}
		if v := getenv(EnvNote); v != "" {
			cfg.NoteID = v
		}
	}

	var fromFlags Config
	fs := flag.NewFlagSet("inknote", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&fromFlags.ServerURL, "server", cfg.ServerURL, "note server url")
	fs.StringVar(&fromFlags.NoteID, "note", cfg.NoteID, "note id to join")
	fs.StringVar(&fromFlags.Image, "image", "", "image file or http(s) url to annotate")
	fs.StringVar(&fromFlags.Color, "color", cfg.Color, "stroke colour")
	fs.Float64Var(&fromFlags.Width, "width", cfg.Width, "stroke width")
	fs.StringVar(&fromFlags.Tool, "tool", cfg.Tool, "pen, highlighter or eraser")
	fs.IntVar(&fromFlags.BatchSize, "batch", cfg.BatchSize, "points per stroke-update")
	fs.BoolVar(&fromFlags.FlushOnStrokeEnd, "flush-on-end", cfg.FlushOnStrokeEnd, "send partial batches when a stroke ends")
	fs.IntVar(&fromFlags.ReconnectAttempts, "reconnect", cfg.ReconnectAttempts, "reconnection attempts")
	fs.DurationVar(&fromFlags.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "delay between reconnection attempts")
	fs.DurationVar(&fromFlags.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "remote image fetch timeout")
	fs.DurationVar(&fromFlags.MeasureDelay, "measure-delay", cfg.MeasureDelay, "delay before re-measuring the canvas")
	fs.BoolVar(&fromFlags.WatchImage, "watch", cfg.WatchImage, "reload a local image when it changes")
	fs.BoolVar(&fromFlags.Discover, "discover", cfg.Discover, "find the note server over mDNS")
	fs.DurationVar(&fromFlags.DiscoverTimeout, "discover-timeout", cfg.DiscoverTimeout, "mDNS browse timeout")
	fs.StringVar(&fromFlags.LogLevel, "log", cfg.LogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if fs.NArg() > 1 {
		return cfg, fmt.Errorf("unexpected argument %q", fs.Arg(1))
	}
	if fs.NArg() == 1 {
		link := fs.Arg(0)
		if !strings.HasPrefix(link, LinkScheme) {
			return cfg, fmt.Errorf("unexpected argument %q", link)
		}
		server, note, err := ParseLink(link)
		if err != nil {
			return cfg, err
		}
		cfg.ServerURL = server
		cfg.serverSet = true
		if note != "" {
			cfg.NoteID = note
		}
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	apply := func(name string, fn func()) {
		if set[name] {
			fn()
		}
	}
	apply("server", func() {
		cfg.ServerURL = fromFlags.ServerURL
		cfg.serverSet = true
	})
	apply("note", func() { cfg.NoteID = fromFlags.NoteID })
	cfg.Image = fromFlags.Image
	cfg.Color = fromFlags.Color
	cfg.Width = fromFlags.Width
	cfg.Tool = fromFlags.Tool
	cfg.BatchSize = fromFlags.BatchSize
	cfg.FlushOnStrokeEnd = fromFlags.FlushOnStrokeEnd
	cfg.ReconnectAttempts = fromFlags.ReconnectAttempts
	cfg.ReconnectDelay = fromFlags.ReconnectDelay
	cfg.FetchTimeout = fromFlags.FetchTimeout
	cfg.MeasureDelay = fromFlags.MeasureDelay
	cfg.WatchImage = fromFlags.WatchImage
	cfg.Discover = fromFlags.Discover
	cfg.DiscoverTimeout = fromFlags.DiscoverTimeout
	cfg.LogLevel = fromFlags.LogLevel
	return cfg, nil
}

// ParseLink splits inknote://host:port/<noteId> into a server url and note id.
func ParseLink(link string) (server, note string, err error) {
	rest := strings.TrimPrefix(link, LinkScheme)
	if rest == link || rest == "" {
		return "", "", fmt.Errorf("not an %s link: %q", LinkScheme, link)
	}
	hostPart, notePart, _ := strings.Cut(rest, "/")
	if hostPart == "" {
		return "", "", fmt.Errorf("link %q has no host", link)
	}
	note, err = url.PathUnescape(strings.Trim(notePart, "/"))
	if err != nil {
		return "", "", fmt.Errorf("link %q: %w", link, err)
	}
	return "http://" + hostPart, note, nil
}

// Link is the inverse of ParseLink.
func (c Config) Link() string {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return LinkScheme + u.Host + "/" + url.PathEscape(c.NoteID)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if strings.TrimSpace(c.NoteID) == "" {
		return ErrMissingNote
	}
	if !c.Discover {
		u, err := url.Parse(c.ServerURL)
		if err != nil {
			return fmt.Errorf("server url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("server url %q must be http(s)://host[:port]", c.ServerURL)
		}
	}
	switch state.StrokeType(c.Tool) {
	case state.StrokePen, state.StrokeHighlighter, state.StrokeEraser:
	default:
		return fmt.Errorf("unknown tool %q", c.Tool)
	}
	if _, ok := state.ParseColor(c.Color); !ok {
		return fmt.Errorf("unknown colour %q", c.Color)
	}
	if c.Width <= 0 {
		return fmt.Errorf("stroke width must be positive, got %g", c.Width)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// StrokeTool is the initial drawing tool. Colour names are sent as
// #RRGGBB.
func (c Config) StrokeTool() state.Tool {
	col := c.Color
	if parsed, ok := state.ParseColor(col); ok {
		col = state.HexColor(parsed)
	}
	t := state.Tool{Color: col, Width: float32(c.Width), Type: state.StrokeType(c.Tool)}
	if t.Type == state.StrokeHighlighter {
		t.Params = &state.ToolParams{Opacity: 0.4, BlendMode: "multiply"}
	}
	return t
}

// FillFromPreferences fills in a note id and server remembered from the
// last run when none were given.
func (c *Config) FillFromPreferences(p fyne.Preferences) {
	if c.NoteID == "" {
		c.NoteID = p.String(prefNote)
	}
	if !c.serverSet && !c.Discover {
		if s := p.String(prefServer); s != "" {
			c.ServerURL = s
		}
	}
}

// Remember stores the server and note for the next run.
func (c Config) Remember(p fyne.Preferences) {
	p.SetString(prefServer, c.ServerURL)
	p.SetString(prefNote, c.NoteID)
}
