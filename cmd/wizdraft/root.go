package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wizdraft/internal/config"
	"wizdraft/internal/format"
)

type outputOptions struct {
	json   bool
	output string
}

// structured reports whether results should be written through a formatter.
func (o *outputOptions) structured() bool {
	return o.json || o.output != ""
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	out := &outputOptions{}
	var logLevel string

	cmd := &cobra.Command{
		Use:           "wizdraft",
		Short:         "Wizdraft keeps registration wizard drafts and their attachments across restarts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}

			name := out.output
			if name == "" {
				name = "json"
			}
			formatter, err := format.ByName(name)
			if err != nil {
				return err
			}
			outputFormatter = formatter
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&out.json, "json", false, "output JSON")
	cmd.PersistentFlags().StringVarP(&out.output, "output", "o", "", "structured output format (json, yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newConfigCmd(cfg),
		newMigrateCmd(cfg, out),
		newInfoCmd(cfg, out),
		newDraftCmd(cfg, out),
		newAttachCmd(cfg, out),
		newBlobsCmd(cfg, out),
	)

	return cmd
}
