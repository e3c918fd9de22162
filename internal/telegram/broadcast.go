package telegram

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	metricspkg "github.com/t-lnarr/plant/internal/observability/metrics"
)

// progressInterval is how many recipients are attempted between progress
// updates to the initiating admin.
const progressInterval = 10

// runBroadcast fans the payload out to every known recipient sequentially.
// Progress and the final tally are edits of a single status message in the
// admin's conversation. Per-recipient delivery failures (blocked
// conversations, deleted accounts) are counted and skipped; the loop always
// attempts every recipient.
func (b *Bot) runBroadcast(ctx context.Context, adminChatID int64, payload string) {
	runID := uuid.New().String()

	recipients, err := b.store.RecipientIDs()
	if err != nil {
		logger.Error("Failed to load recipients for broadcast",
			"error", err,
			"run_id", runID)
		b.sendHTML(adminChatID, fmt.Sprintf(msgProcessingFailed, html.EscapeString(err.Error())))
		return
	}

	logger.Info("Broadcast started",
		"run_id", runID,
		"recipients", len(recipients),
		"admin_chat_id", adminChatID)
	b.metrics.Bot.RecordBroadcast()

	status := b.sendHTML(adminChatID, fmt.Sprintf(msgBroadcastProgress, 0, len(recipients)))

	delivered := 0
	failed := 0
	for i, recipient := range recipients {
		if ctx.Err() != nil {
			logger.Warn("Broadcast interrupted by shutdown",
				"run_id", runID,
				"attempted", i,
				"recipients", len(recipients))
			break
		}

		out := tgbotapi.NewMessage(recipient, fmt.Sprintf(msgBroadcastPayload, payload))
		out.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(out); err != nil {
			failed++
			b.metrics.Bot.RecordBroadcastDelivery(metricspkg.LabelError)
			logger.Debug("Broadcast delivery failed",
				"run_id", runID,
				"recipient", recipient,
				"error", err)
		} else {
			delivered++
			b.metrics.Bot.RecordBroadcastDelivery(metricspkg.LabelSuccess)
		}

		if status != nil && (i+1)%progressInterval == 0 {
			b.editHTML(adminChatID, status.MessageID,
				fmt.Sprintf(msgBroadcastProgress, i+1, len(recipients)))
		}
	}

	report := fmt.Sprintf(msgBroadcastDone, delivered, failed, len(recipients))
	if status != nil {
		b.editHTML(adminChatID, status.MessageID, report)
	} else {
		b.sendHTML(adminChatID, report)
	}

	logger.Info("Broadcast finished",
		"run_id", runID,
		"delivered", delivered,
		"failed", failed)
}
