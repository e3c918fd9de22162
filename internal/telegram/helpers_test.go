package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/t-lnarr/plant/internal/conf"
	"github.com/t-lnarr/plant/internal/datastore"
	"github.com/t-lnarr/plant/internal/observability"
	"github.com/t-lnarr/plant/internal/plantnet"
)

const testAdminID = int64(99)

// sentItem is one outbound action captured by the fake API.
type sentItem struct {
	chatID    int64
	messageID int
	text      string
	parseMode string
	edit      bool
}

// fakeAPI implements the api interface and records every outbound action.
type fakeAPI struct {
	mu      sync.Mutex
	sent    []sentItem
	nextID  int
	fileURL string
	sendErr func(chatID int64) error
	updates chan tgbotapi.Update
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		if f.sendErr != nil {
			if err := f.sendErr(v.ChatID); err != nil {
				return tgbotapi.Message{}, err
			}
		}
		f.nextID++
		f.sent = append(f.sent, sentItem{chatID: v.ChatID, messageID: f.nextID, text: v.Text, parseMode: v.ParseMode})
		return tgbotapi.Message{MessageID: f.nextID, Chat: &tgbotapi.Chat{ID: v.ChatID}}, nil
	case tgbotapi.EditMessageTextConfig:
		f.sent = append(f.sent, sentItem{chatID: v.ChatID, messageID: v.MessageID, text: v.Text, parseMode: v.ParseMode, edit: true})
		return tgbotapi.Message{MessageID: v.MessageID, Chat: &tgbotapi.Chat{ID: v.ChatID}}, nil
	default:
		f.sent = append(f.sent, sentItem{})
		return tgbotapi.Message{}, nil
	}
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	close(f.updates)
}

// messages returns a snapshot of everything sent so far.
func (f *fakeAPI) messages() []sentItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentItem, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeAPI) lastMessage() sentItem {
	msgs := f.messages()
	if len(msgs) == 0 {
		return sentItem{}
	}
	return msgs[len(msgs)-1]
}

// fakeRecognizer returns a canned identification or error.
type fakeRecognizer struct {
	identification *plantnet.Identification
	err            error
	calls          int
}

func (f *fakeRecognizer) Identify(_ context.Context, _ string) (*plantnet.Identification, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.identification, nil
}

// fakeAdvisor returns canned care advice or an error.
type fakeAdvisor struct {
	advice string
	err    error
	calls  int
}

func (f *fakeAdvisor) CareAdvice(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.advice, nil
}

type activity struct {
	id       int64
	username string
}

type occurrence struct {
	name string
	id   int64
}

// fakeStore records mutations in memory.
type fakeStore struct {
	mu          sync.Mutex
	activities  []activity
	occurrences []occurrence
	stats       datastore.Stats
	ranks       []datastore.SpeciesRank
	recipients  []int64
}

func (f *fakeStore) RecordRecipientActivity(id int64, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, activity{id: id, username: username})
	return nil
}

func (f *fakeStore) RecordSpeciesOccurrence(name string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.occurrences = append(f.occurrences, occurrence{name: name, id: id})
	return nil
}

func (f *fakeStore) Stats() (datastore.Stats, error)              { return f.stats, nil }
func (f *fakeStore) TopSpecies(int) ([]datastore.SpeciesRank, error) { return f.ranks, nil }
func (f *fakeStore) RecipientIDs() ([]int64, error)               { return f.recipients, nil }

func (f *fakeStore) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.activities) + len(f.occurrences)
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{TempDir: t.TempDir()}
	settings.Telegram.Admins = "99"
	settings.Telegram.PollTimeout = 30
	settings.PlantNet.Timeout = 30 * time.Second
	settings.Gemini.Timeout = 30 * time.Second
	require.NoError(t, conf.ValidateSettings(settings))
	return settings
}

func newTestBot(t *testing.T, api *fakeAPI, rec recognizer, adv advisor, store counterStore) *Bot {
	t.Helper()
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)
	return newBot(api, testSettings(t), rec, adv, store, metrics)
}

// metricsBody renders the bot's metrics registry as Prometheus exposition text.
func metricsBody(t *testing.T, b *Bot) string {
	t.Helper()
	mux := http.NewServeMux()
	b.metrics.RegisterHandlers(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	return rec.Body.String()
}

func textMessage(chatID, userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: userID, UserName: "tester"},
		Text:      text,
	}
}

func commandMessage(chatID, userID int64, command string) *tgbotapi.Message {
	msg := textMessage(chatID, userID, "/"+command)
	msg.Entities = []tgbotapi.MessageEntity{{
		Type:   "bot_command",
		Offset: 0,
		Length: len(command) + 1,
	}}
	return msg
}

func photoMessage(chatID, userID int64) *tgbotapi.Message {
	msg := textMessage(chatID, userID, "")
	msg.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90},
		{FileID: "large", Width: 800},
	}
	return msg
}
