package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCommand(info BuildInfo, settings settingsLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect module configuration files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dump [identifier]",
		Short: "Parse a configuration file and print it in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			identifier := cfg.ConfigIdentifier()
			if len(args) == 1 {
				identifier = args[0]
			}

			// Keep stdout for the dump itself.
			cfg.Logging.Output = "stderr"
			ectx := newContext(cmd, cfg, info.Version)
			conf, err := ectx.LoadConfiguration(identifier)
			if err != nil {
				return err
			}
			return conf.Encode(cmd.OutOrStdout())
		},
	})

	return cmd
}
