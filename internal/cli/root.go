// Package cli provides the hap command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/infrastructure/config"
	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
	"github.com/nerrad567/hap-engine/internal/modules/journal"
	"github.com/nerrad567/hap-engine/internal/modules/metrics"
	"github.com/nerrad567/hap-engine/internal/modules/status"
	"github.com/nerrad567/hap-engine/internal/modules/telemetry"
	"github.com/nerrad567/hap-engine/internal/modules/video"
)

// DefaultSettingsPath is used when neither --settings nor HAP_SETTINGS is set.
const DefaultSettingsPath = "configs/hap.yaml"

// BuildInfo carries version information set at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRegistry returns a registry holding every built-in module.
func NewRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	reg.MustRegister(video.ID, video.New)
	reg.MustRegister(journal.ID, journal.New)
	reg.MustRegister(telemetry.ID, telemetry.New)
	reg.MustRegister(metrics.ID, metrics.New)
	reg.MustRegister(status.ID, status.New)
	return reg
}

// NewRootCmd creates and returns the root command.
func NewRootCmd(info BuildInfo) *cobra.Command {
	var settingsPath string

	rootCmd := &cobra.Command{
		Use:   "hap",
		Short: "HAP - pluggable module engine",
		Long: `hap reads an INI configuration, instantiates the modules it names and
drives their update/render loop until stopped.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "",
		"host settings file (default: $HAP_SETTINGS or "+DefaultSettingsPath+")")
	rootCmd.PersistentFlags().String("name", "", "engine name")
	rootCmd.PersistentFlags().String("config-dir", "", "directory holding <identifier>.ini")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|notice|warn|error|fatal)")

	settings := func(cmd *cobra.Command) (*config.Config, error) {
		return loadSettings(cmd, settingsPath)
	}

	rootCmd.AddCommand(newRunCommand(info, settings))
	rootCmd.AddCommand(newConfigCommand(info, settings))
	rootCmd.AddCommand(newModulesCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}

// Execute runs the root command with args.
func Execute(ctx context.Context, info BuildInfo, args []string) error {
	rootCmd := NewRootCmd(info)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return engine.KindOf(err).ExitCode()
}

// settingsLoader resolves host settings for a command.
type settingsLoader func(cmd *cobra.Command) (*config.Config, error)

// loadSettings reads the settings file and applies persistent flag
// overrides. A missing file at the default location falls back to defaults;
// an explicitly named file must exist.
func loadSettings(cmd *cobra.Command, path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv("HAP_SETTINGS"); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultSettingsPath
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if explicit {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		kind := engine.KindSchema
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			kind = engine.KindResource
		}
		return nil, &engine.Error{Kind: kind, Op: "load settings", Err: err}
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("name"); v != "" {
		cfg.Engine.Name = v
	}
	if v, _ := flags.GetString("config-dir"); v != "" {
		cfg.Engine.ConfigDir = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, &engine.Error{Kind: engine.KindSchema, Op: "validate settings", Err: err}
	}
	return cfg, nil
}

// newLogger builds the process logger on the command's output streams.
func newLogger(cmd *cobra.Command, cfg config.LoggingConfig, version string) *logging.Logger {
	var w io.Writer = cmd.OutOrStdout()
	if strings.EqualFold(cfg.Output, "stderr") {
		w = cmd.ErrOrStderr()
	}
	return logging.NewWriter(w, cfg, version)
}

// newContext builds an engine context from settings.
func newContext(cmd *cobra.Command, cfg *config.Config, version string) *engine.Context {
	return engine.NewContext(engine.Options{
		Name:      cfg.Engine.Name,
		ConfigDir: cfg.Engine.ConfigDir,
		Version:   version,
		Logger:    newLogger(cmd, cfg.Logging, version),
	})
}
