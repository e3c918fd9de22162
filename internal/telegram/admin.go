package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	metricspkg "github.com/t-lnarr/plant/internal/observability/metrics"
)

// leaderboardSize is the number of species shown by the /plants command.
const leaderboardSize = 20

// requireAdmin gates an admin command. Non-admin senders get a uniform
// rejection and the command has no further effect.
func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if b.settings.Telegram.IsAdmin(senderID(msg)) {
		return true
	}
	logger.Warn("Admin command rejected",
		"command", msg.Command(),
		"chat_id", msg.Chat.ID,
		"user_id", senderID(msg))
	b.metrics.Bot.RecordCommand(msg.Command(), metricspkg.LabelRejected)
	b.sendHTML(msg.Chat.ID, msgAdminsOnly)
	return false
}

// handleStats renders the aggregate usage counters.
func (b *Bot) handleStats(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	stats, err := b.store.Stats()
	if err != nil {
		logger.Error("Failed to compute stats", "error", err)
		b.sendHTML(msg.Chat.ID, fmt.Sprintf(msgProcessingFailed, html.EscapeString(err.Error())))
		return
	}

	b.metrics.Store.SetRecipients(stats.TotalRecipients)
	b.metrics.Store.SetSpecies(stats.TotalSpecies)

	b.sendHTML(msg.Chat.ID, fmt.Sprintf(msgStats,
		stats.TotalRecipients,
		stats.DailyRecipients,
		stats.TotalSpecies,
		stats.TotalOccurrences))
	b.metrics.Bot.RecordCommand(msg.Command(), metricspkg.LabelSuccess)
}

// handleLeaderboard renders the top species by occurrence count.
func (b *Bot) handleLeaderboard(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	ranks, err := b.store.TopSpecies(leaderboardSize)
	if err != nil {
		logger.Error("Failed to compute leaderboard", "error", err)
		b.sendHTML(msg.Chat.ID, fmt.Sprintf(msgProcessingFailed, html.EscapeString(err.Error())))
		return
	}

	if len(ranks) == 0 {
		b.sendHTML(msg.Chat.ID, msgLeaderboardEmpty)
		b.metrics.Bot.RecordCommand(msg.Command(), metricspkg.LabelSuccess)
		return
	}

	var sb strings.Builder
	sb.WriteString(msgLeaderboardHeader)
	for i, rank := range ranks {
		fmt.Fprintf(&sb, "%d. <b>%s</b> — %d identifications, %d users\n",
			i+1, html.EscapeString(rank.ScientificName), rank.Count, rank.UserCount)
	}
	b.sendHTML(msg.Chat.ID, sb.String())
	b.metrics.Bot.RecordCommand(msg.Command(), metricspkg.LabelSuccess)
}

// handleBroadcastStart arms the per-conversation broadcast flag and prompts
// for the payload.
func (b *Bot) handleBroadcastStart(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	b.broadcastMu.Lock()
	b.awaitingBroadcast[msg.Chat.ID] = true
	b.broadcastMu.Unlock()

	logger.Info("Broadcast armed", "chat_id", msg.Chat.ID)
	b.sendHTML(msg.Chat.ID, msgBroadcastPrompt)
	b.metrics.Bot.RecordCommand(msg.Command(), metricspkg.LabelSuccess)
}

// handleBroadcastCancel clears the broadcast flag.
func (b *Bot) handleBroadcastCancel(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	if b.clearAwaiting(msg.Chat.ID) {
		logger.Info("Broadcast cancelled", "chat_id", msg.Chat.ID)
		b.sendHTML(msg.Chat.ID, msgBroadcastCancelled)
	} else {
		b.sendHTML(msg.Chat.ID, msgNothingToCancel)
	}
	b.metrics.Bot.RecordCommand(msg.Command(), metricspkg.LabelSuccess)
}

// handleAdminHelp lists the admin command surface.
func (b *Bot) handleAdminHelp(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}
	b.sendHTML(msg.Chat.ID, msgAdminHelp)
	b.metrics.Bot.RecordCommand(msg.Command(), metricspkg.LabelSuccess)
}

// clearAwaiting clears the broadcast flag for a conversation and reports
// whether it was set.
func (b *Bot) clearAwaiting(chatID int64) bool {
	b.broadcastMu.Lock()
	defer b.broadcastMu.Unlock()
	was := b.awaitingBroadcast[chatID]
	delete(b.awaitingBroadcast, chatID)
	return was
}
