package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
	"github.com/nerrad567/hap-engine/internal/ini"
)

// DefaultName is used when Options.Name is empty.
const DefaultName = "HAP"

// Options configures a Context.
type Options struct {
	// Name identifies the engine and is the default configuration identifier.
	Name string

	// ConfigDir is where configuration files are looked up.
	ConfigDir string

	// Version is reported by diagnostics modules.
	Version string

	// Logger receives all engine and module output. Nil discards.
	Logger *logging.Logger
}

// Context is the process-wide engine handle passed to every lifecycle call.
//
// It carries the engine identity and the logging capability. A Context is
// read-only after NewContext returns, so modules may read it from their own
// goroutines.
type Context struct {
	*logging.Logger

	name      string
	runID     string
	version   string
	configDir string
	started   time.Time
}

// NewContext builds a Context. Every log record written through it carries
// the engine name and a per-process run identifier.
func NewContext(opts Options) *Context {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	dir := opts.ConfigDir
	if dir == "" {
		dir = "."
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	runID := uuid.NewString()

	return &Context{
		Logger:    logger.With("engine", name, "run_id", runID),
		name:      name,
		runID:     runID,
		version:   opts.Version,
		configDir: dir,
		started:   time.Now(),
	}
}

// Name returns the engine name.
func (c *Context) Name() string { return c.name }

// RunID returns the identifier generated for this process.
func (c *Context) RunID() string { return c.runID }

// Version returns the build version, if one was supplied.
func (c *Context) Version() string { return c.version }

// ConfigDir returns the configuration directory.
func (c *Context) ConfigDir() string { return c.configDir }

// Started returns when the context was created.
func (c *Context) Started() time.Time { return c.started }

// Uptime returns the time elapsed since the context was created.
func (c *Context) Uptime() time.Duration { return time.Since(c.started) }

// LogLevel reports the lowest level the context's logger emits.
func (c *Context) LogLevel() slog.Level {
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, logging.LevelNotice, slog.LevelWarn, slog.LevelError} {
		if c.Enabled(context.Background(), level) {
			return level
		}
	}
	return logging.LevelFatal
}

// ModuleLogger returns a logger tagged with a module identifier.
func (c *Context) ModuleLogger(id string) *logging.Logger {
	return c.With("module", id)
}

// LoadConfiguration reads <ConfigDir>/<identifier>.ini. An empty identifier
// falls back to the engine name.
//
// The result is either a complete Configuration or an *Error whose kind is
// KindResource (open/read failures) or KindParse (malformed tokens).
func (c *Context) LoadConfiguration(identifier string) (*ini.Configuration, error) {
	if identifier == "" {
		identifier = c.name
	}

	loader := ini.NewLoader(c.configDir)
	loader.SetLogger(c.Logger)

	cfg, err := loader.Load(identifier)
	if err != nil {
		kind := KindResource
		if errors.Is(err, ini.ErrTokenTooLong) {
			kind = KindParse
		}
		return nil, newError(kind, "load configuration", identifier, err)
	}

	c.Debug("configuration loaded",
		"file", loader.Path(identifier),
		"sections", len(cfg.Sections()),
		"globals", len(cfg.Globals()),
	)
	return cfg, nil
}
