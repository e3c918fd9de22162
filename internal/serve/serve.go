// Package serve wires the clients, store and bot together and runs the
// polling loop until the process is interrupted.
package serve

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/t-lnarr/plant/internal/conf"
	"github.com/t-lnarr/plant/internal/datastore"
	"github.com/t-lnarr/plant/internal/errors"
	"github.com/t-lnarr/plant/internal/gemini"
	"github.com/t-lnarr/plant/internal/logging"
	"github.com/t-lnarr/plant/internal/observability"
	"github.com/t-lnarr/plant/internal/plantnet"
	"github.com/t-lnarr/plant/internal/telegram"
)

// Run starts the bot and blocks until SIGINT or SIGTERM.
func Run(settings *conf.Settings) error {
	if err := conf.ValidateSecrets(settings); err != nil {
		return err
	}

	level := slog.LevelInfo
	if settings.Log.Level != "" {
		_ = level.UnmarshalText([]byte(settings.Log.Level))
	}
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.SetLevel(level)

	log := logging.ForService("serve")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	store := datastore.New(settings.Store.UsersFile, settings.Store.PlantsFile)
	defer store.Close()

	recognizer, err := plantnet.NewClient(plantnet.Config{
		APIKey:  settings.PlantNet.APIKey,
		BaseURL: settings.PlantNet.Endpoint,
		Project: settings.PlantNet.Project,
		Timeout: settings.PlantNet.Timeout,
	})
	if err != nil {
		return err
	}
	defer recognizer.Close()

	advisor, err := gemini.NewClient(gemini.Config{
		APIKey:   settings.Gemini.APIKey,
		BaseURL:  settings.Gemini.Endpoint,
		Model:    settings.Gemini.Model,
		Timeout:  settings.Gemini.Timeout,
		CacheTTL: settings.Gemini.CacheTTL,
	})
	if err != nil {
		return err
	}
	defer advisor.Close()
	advisor.SetMetrics(metrics)

	bot, err := telegram.New(settings, recognizer, advisor, store, metrics)
	if err != nil {
		return err
	}
	defer bot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	quitChan := make(chan struct{})

	if settings.Observability.Enabled {
		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
	}

	log.Info("Bot serving", "debug", settings.Debug)

	err = bot.Run(ctx)

	close(quitChan)
	wg.Wait()

	if errors.Is(err, context.Canceled) {
		log.Info("Shutdown complete")
		return nil
	}
	return err
}
