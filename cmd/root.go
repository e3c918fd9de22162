package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/t-lnarr/plant/cmd/config"
	"github.com/t-lnarr/plant/cmd/serve"
	"github.com/t-lnarr/plant/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plantbot",
		Short: "Telegram plant identification bot",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		configcmd.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures persistent flags shared by all subcommands.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.TempDir, "tempdir", viper.GetString("tempdir"), "Directory for downloaded photo files")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
