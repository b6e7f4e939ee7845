package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docindex/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "docindex",
		Short:         "Docindex is a tagged document index with a Telegram search bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newSearchCmd(cfg, &jsonOutput),
		newUploadCmd(cfg, &jsonOutput),
		newTagCmd(cfg, &jsonOutput),
		newRmCmd(cfg, &jsonOutput),
		newGetCmd(cfg, &jsonOutput),
		newInfoCmd(cfg, &jsonOutput),
		newWhoamiCmd(cfg, &jsonOutput),
		newImportCmd(cfg, &jsonOutput),
		newMigrateCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
		newHashSecretCmd(),
	)

	return cmd
}
