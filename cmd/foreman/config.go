package main

import (
	"fmt"

	"github.com/ctc-oss/foreman/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Foreman configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		fmt.Printf("Configuration OK: %s\n", path)
		fmt.Printf("  Node:            %s (%s)\n", cfg.Node.ID, cfg.Node.Hostname)
		fmt.Printf("  Storage dir:     %s\n", cfg.Storage.DataDir)
		fmt.Printf("  Workspace dir:   %s\n", cfg.Workspace.BasePath)
		fmt.Printf("  Bus workers:     %d\n", cfg.Bus.MaxWorkers)
		fmt.Printf("  Node error rate: %d errors / %d minutes\n", cfg.Scheduler.MaxNodeErrors, cfg.Scheduler.NodeErrorPeriodMinutes)
		fmt.Printf("  Metrics:         %s (enabled=%t)\n", cfg.Metrics.Listen, cfg.Metrics.Enabled)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
