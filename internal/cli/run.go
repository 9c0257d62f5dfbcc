package cli

import (
	"github.com/spf13/cobra"

	"github.com/nerrad567/hap-engine/internal/engine"
)

func newRunCommand(info BuildInfo, settings settingsLoader) *cobra.Command {
	var (
		identifier string
		maxTicks   int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the configuration and run the module loop",
		Long: `Run loads <config-dir>/<identifier>.ini, instantiates the listed modules
and ticks them until interrupted, the tick budget is spent or every module
has stopped. Modules shut down in reverse order of creation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			if identifier != "" {
				cfg.Engine.Identifier = identifier
			}
			if cmd.Flags().Changed("max-ticks") {
				cfg.Engine.MaxTicks = maxTicks
			}
			cfg.Engine.Identifier = cfg.ConfigIdentifier()

			ectx := newContext(cmd, cfg, info.Version)
			ectx.Info("starting hap",
				"version", info.Version,
				"commit", info.Commit,
				"build_date", info.Date,
				"identifier", cfg.Engine.Identifier,
				"config_dir", cfg.Engine.ConfigDir,
			)

			e := engine.New(ectx, NewRegistry(), cfg.Engine)
			defer e.Close()

			if err := e.Start(); err != nil {
				return err
			}
			return e.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&identifier, "identifier", "i", "", "configuration identifier (default: engine name)")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "stop after n ticks (0 = unbounded)")
	return cmd
}
