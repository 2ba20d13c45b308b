package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	dev        bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "creator-ledger",
		Short:         "Tips, creator earnings and subscription billing",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "config.yaml", "path to YAML config file")
	cmd.PersistentFlags().BoolVar(&f.dev, "dev", false, "developer mode: console logs, relaxed config validation")

	cmd.AddCommand(
		newServeCmd(f),
		newReconcileCmd(f),
		newMigrateCmd(f),
		newTokenCmd(f),
	)
	return cmd
}
