// Package serve implements the command that runs the bot.
package serve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/t-lnarr/plant/internal/conf"
	"github.com/t-lnarr/plant/internal/serve"
)

// Command creates a new command that starts the bot's polling loop.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Long:  "Start the Telegram polling loop and serve photo identifications until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.Run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().IntVar(&settings.Telegram.PollTimeout, "polltimeout", viper.GetInt("telegram.polltimeout"), "Telegram long poll timeout in seconds")
	cmd.Flags().StringVar(&settings.Store.UsersFile, "usersfile", viper.GetString("store.usersfile"), "Path of the recipient collection file")
	cmd.Flags().StringVar(&settings.Store.PlantsFile, "plantsfile", viper.GetString("store.plantsfile"), "Path of the species collection file")
	cmd.Flags().BoolVar(&settings.Observability.Enabled, "telemetry", viper.GetBool("observability.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Observability.Listen, "listen", viper.GetString("observability.listen"), "Listen address and port of telemetry endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
