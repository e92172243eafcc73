package main

import (
	"github.com/spf13/cobra"

	"github.com/gridnode/agentd/internal/logconfig"
)

func newRootCmd() *cobra.Command {
	logOpts := logconfig.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "agentd",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindEnv("AGENTD_", cmd); err != nil {
				return err
			}
			if err := clearEnv("AGENTD_"); err != nil {
				return err
			}
			if errs := logOpts.Validate(); len(errs) > 0 {
				return errs[0]
			}
			logOpts.Set()
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&logOpts.Level, "log-level", "l", logOpts.Level,
		"set the logging level (one of: debug, info, warn, error, fatal)")
	cmd.PersistentFlags().BoolVar(&logOpts.Color, "color", logOpts.Color, "enable colored output")
	cmd.PersistentFlags().BoolVar(&logOpts.Structured, "structured", logOpts.Structured,
		"emit logs as JSON instead of text")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}
