package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/poundwave/pkg/poundwave/config"
)

func checkCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a config file without starting the proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("OK: %d listener(s) configured\n", len(cfg.Listeners))
			for _, l := range cfg.Listeners {
				fmt.Printf("  %s -> %s\n", l.Name, l.Address)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "poundwave.yaml", "path to the config file")

	return cmd
}
