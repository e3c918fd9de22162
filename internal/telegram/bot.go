// Package telegram implements the conversational surface of the bot: the
// long-poll update loop, the photo identification pipeline, the admin
// commands, and the broadcast driver.
package telegram

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/t-lnarr/plant/internal/conf"
	"github.com/t-lnarr/plant/internal/datastore"
	"github.com/t-lnarr/plant/internal/errors"
	"github.com/t-lnarr/plant/internal/logging"
	"github.com/t-lnarr/plant/internal/observability"
	metricspkg "github.com/t-lnarr/plant/internal/observability/metrics"
	"github.com/t-lnarr/plant/internal/plantnet"
)

// Package-level logger specific to telegram service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "telegram.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "telegram", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize telegram file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "telegram")
		closeLogger = func() error { return nil }
	}
}

// api is the narrow surface of the Telegram Bot API the bot depends on.
// *tgbotapi.BotAPI satisfies it.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// recognizer maps a locally stored image to a best-guess species.
type recognizer interface {
	Identify(ctx context.Context, imagePath string) (*plantnet.Identification, error)
}

// advisor maps a species name to free-form care guidance text.
type advisor interface {
	CareAdvice(ctx context.Context, scientificName string) (string, error)
}

// counterStore is the persistence surface the handlers mutate and query.
type counterStore interface {
	RecordRecipientActivity(id int64, username string) error
	RecordSpeciesOccurrence(scientificName string, id int64) error
	Stats() (datastore.Stats, error)
	TopSpecies(n int) ([]datastore.SpeciesRank, error)
	RecipientIDs() ([]int64, error)
}

// Bot drives the Telegram conversation.
type Bot struct {
	api        api
	settings   *conf.Settings
	recognizer recognizer
	advisor    advisor
	store      counterStore
	metrics    *observability.Metrics
	httpClient *http.Client

	// Per-admin-conversation broadcast state. An admin whose next plain-text
	// message is the broadcast payload has an entry here.
	broadcastMu       sync.Mutex
	awaitingBroadcast map[int64]bool
}

// New creates the bot over an authorized Telegram API connection.
func New(settings *conf.Settings, rec recognizer, adv advisor, store counterStore, metrics *observability.Metrics) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(settings.Telegram.Token)
	if err != nil {
		return nil, errors.Newf("failed to connect to Telegram: %w", err).
			Category(errors.CategoryConfiguration).
			Component("telegram").
			Build()
	}

	logger.Info("Telegram bot authorized",
		"username", botAPI.Self.UserName,
		"admins", len(settings.Telegram.AdminIDs()))

	return newBot(botAPI, settings, rec, adv, store, metrics), nil
}

// newBot wires the bot over an already constructed API surface.
func newBot(a api, settings *conf.Settings, rec recognizer, adv advisor, store counterStore, metrics *observability.Metrics) *Bot {
	return &Bot{
		api:        a,
		settings:   settings,
		recognizer: rec,
		advisor:    adv,
		store:      store,
		metrics:    metrics,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		awaitingBroadcast: make(map[int64]bool),
	}
}

// Run polls for updates until the context is cancelled. Each update is
// handled on its own goroutine so a slow identification pipeline does not
// stall other conversations.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.settings.Telegram.PollTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	logger.Info("Update loop started", "poll_timeout", b.settings.Telegram.PollTimeout)

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			wg.Wait()
			logger.Info("Update loop stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				wg.Wait()
				logger.Info("Update channel closed")
				return nil
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						logger.Error("Panic in message handler",
							"panic", r,
							"chat_id", msg.Chat.ID)
					}
				}()
				b.handleMessage(ctx, msg)
			}()
		}
	}
}

// Close releases the bot's log file.
func (b *Bot) Close() {
	logger.Info("Closing Telegram bot")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing telegram logger: %v", err)
		}
	}
}

// handleMessage dispatches one inbound message to the matching handler.
// Recipient activity is recorded only on session starts and photo
// submissions, so admin traffic and idle chatter do not inflate the counters.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case len(msg.Photo) > 0:
		b.metrics.Bot.RecordMessage("photo")
		b.recordActivity(msg)
		b.handlePhoto(ctx, msg)
	case msg.IsCommand():
		b.metrics.Bot.RecordMessage("command")
		b.handleCommand(ctx, msg)
	default:
		b.metrics.Bot.RecordMessage("text")
		b.handleText(ctx, msg)
	}
}

// handleCommand routes a /command message.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	logger.Debug("Command received",
		"command", command,
		"chat_id", msg.Chat.ID)

	switch command {
	case "start":
		b.recordActivity(msg)
		b.sendHTML(msg.Chat.ID, msgWelcome)
		b.metrics.Bot.RecordCommand(command, metricspkg.LabelSuccess)
	case "help":
		b.sendHTML(msg.Chat.ID, msgHelp)
		b.metrics.Bot.RecordCommand(command, metricspkg.LabelSuccess)
	case "stats":
		b.handleStats(msg)
	case "plants":
		b.handleLeaderboard(msg)
	case "broadcast":
		b.handleBroadcastStart(msg)
	case "cancel":
		b.handleBroadcastCancel(msg)
	case "adminhelp":
		b.handleAdminHelp(msg)
	default:
		b.sendHTML(msg.Chat.ID, msgTextFallback)
	}
}

// handleText handles plain text that is not a command: either a pending
// broadcast payload from an admin, or a nudge toward sending a photo.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	if b.settings.Telegram.IsAdmin(senderID(msg)) && b.clearAwaiting(msg.Chat.ID) {
		b.runBroadcast(ctx, msg.Chat.ID, msg.Text)
		return
	}
	b.sendHTML(msg.Chat.ID, msgTextFallback)
}

// recordActivity updates the recipient record for a counted interaction.
func (b *Bot) recordActivity(msg *tgbotapi.Message) {
	username := ""
	if msg.From != nil {
		username = msg.From.UserName
	}
	if err := b.store.RecordRecipientActivity(msg.Chat.ID, username); err != nil {
		b.metrics.Store.RecordOperation("recipient_activity", metricspkg.LabelError)
		logger.Error("Failed to record recipient activity",
			"error", err,
			"chat_id", msg.Chat.ID)
		return
	}
	b.metrics.Store.RecordOperation("recipient_activity", metricspkg.LabelSuccess)
}

// sendHTML sends a new HTML-formatted message and returns it.
func (b *Bot) sendHTML(chatID int64, text string) *tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := b.api.Send(msg)
	if err != nil {
		b.metrics.Bot.RecordReplyError()
		logger.Error("Failed to send message",
			"error", err,
			"chat_id", chatID)
		return nil
	}
	b.metrics.Bot.RecordReply("send")
	return &sent
}

// editHTML edits an existing message in place with HTML formatting.
func (b *Bot) editHTML(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.metrics.Bot.RecordReplyError()
		logger.Error("Failed to edit message",
			"error", err,
			"chat_id", chatID,
			"message_id", messageID)
		return
	}
	b.metrics.Bot.RecordReply("edit")
}

// senderID returns the sending user's id, falling back to the chat id for
// channel-style messages without a From field.
func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}
