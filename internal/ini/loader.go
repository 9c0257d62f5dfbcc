package ini

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extension is appended to an identifier to form the configuration filename.
const Extension = ".ini"

// Logger defines the logging interface used by the Loader.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Loader reads configuration files from a directory.
type Loader struct {
	dir    string
	logger Logger
}

// NewLoader returns a Loader resolving files relative to dir.
// An empty dir means the working directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:    dir,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the loader.
func (l *Loader) SetLogger(logger Logger) {
	l.logger = logger
}

// Filename returns the file name for identifier. An identifier that already
// carries the extension is returned unchanged.
func Filename(identifier string) string {
	if strings.HasSuffix(identifier, Extension) {
		return identifier
	}
	return identifier + Extension
}

// Path returns the full path of the file for identifier.
func (l *Loader) Path(identifier string) string {
	return filepath.Join(l.dir, Filename(identifier))
}

// Load reads and parses the configuration file for identifier.
//
// Parameters:
//   - identifier: Base name of the file; Extension is appended
//
// Returns:
//   - *Configuration: Fully parsed configuration
//   - error: ErrNoIdentifier, ErrOpen, ErrRead or ErrTokenTooLong (wrapped);
//     no partial configuration is ever returned
func (l *Loader) Load(identifier string) (*Configuration, error) {
	if identifier == "" {
		return nil, ErrNoIdentifier
	}

	path := l.Path(identifier)
	l.logger.Debug("loading configuration file", "path", path)

	f, err := os.Open(path) //nolint:gosec // path comes from engine settings
	if err != nil {
		l.logger.Error("failed to load configuration file", "path", path, "error", err)
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	return parse(f, path, l.logger)
}

// Parse builds a Configuration from r. It is Load without the file handling.
func Parse(r io.Reader, logger Logger) (*Configuration, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	return parse(r, "<stream>", logger)
}

// parse drives the tokenizer until the stream is finished.
func parse(r io.Reader, source string, logger Logger) (*Configuration, error) {
	tokens := NewTokenizer(r)
	cfg := &Configuration{}
	var current *Section

	for {
		tok, err := tokens.Next()
		if err != nil {
			logger.Error("failed to load token",
				"file", source,
				"section", len(cfg.sections),
				"error", err,
			)
			return nil, fmt.Errorf("parsing %s: %w", source, err)
		}

		logger.Debug("config token",
			"file", source,
			"kind", tok.Kind.String(),
			"value", tok.Value,
		)

		switch tok.Kind {
		case TokenFinished:
			return cfg, nil

		case TokenSection:
			name := strings.TrimSpace(tok.Value)
			if name == "" {
				logger.Warn("empty section name ignored", "file", source, "line", tok.Line)
				continue
			}
			current = &Section{name: name}
			cfg.sections = append(cfg.sections, current)

		case TokenOption:
			opt, ok := parseOption(tok.Value)
			if !ok {
				logger.Warn("option without key ignored", "file", source, "line", tok.Line)
				continue
			}
			if current == nil {
				cfg.globals = append(cfg.globals, opt)
			} else {
				current.options = append(current.options, opt)
			}

		case TokenComment:
			// discarded

		default:
			logger.Warn("unknown token found in configuration file",
				"file", source,
				"kind", tok.Kind.String(),
				"line", tok.Line,
			)
		}
	}
}
