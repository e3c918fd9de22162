// Package config implements commands for inspecting and persisting the
// configuration file.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t-lnarr/plant/internal/conf"
)

// Command creates the config command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(pathCommand(), saveCommand())

	return cmd
}

// pathCommand prints the location of the active config.yaml.
func pathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the active configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := conf.FindConfigFile()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// saveCommand persists the effective settings back to config.yaml.
func saveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the effective settings to the configuration file",
		Long:  "Persist the effective settings, including environment and flag overrides, back to config.yaml.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.SaveSettings()
		},
	}
}
