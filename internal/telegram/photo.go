package telegram

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/t-lnarr/plant/internal/errors"
	metricspkg "github.com/t-lnarr/plant/internal/observability/metrics"
)

// handlePhoto runs the identification pipeline for one inbound photo:
// acknowledge, download, recognize, persist, advise, respond. The temporary
// image file is removed on every path that created it.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	start := time.Now()

	status := b.sendHTML(msg.Chat.ID, msgProcessing)
	if status == nil {
		return
	}

	tempPath := filepath.Join(b.settings.TempDir, fmt.Sprintf("plant_%d.jpg", msg.Chat.ID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in photo pipeline",
				"panic", r,
				"chat_id", msg.Chat.ID)
			b.metrics.Bot.RecordIdentification(metricspkg.LabelError)
			b.editHTML(msg.Chat.ID, status.MessageID,
				fmt.Sprintf(msgProcessingFailed, html.EscapeString(fmt.Sprint(r))))
			removeQuiet(tempPath)
		}
	}()

	downloadStart := time.Now()
	if err := b.downloadPhoto(ctx, msg, tempPath); err != nil {
		logger.Error("Photo download failed",
			"error", err,
			"chat_id", msg.Chat.ID)
		b.metrics.Bot.RecordIdentification(metricspkg.LabelError)
		b.editHTML(msg.Chat.ID, status.MessageID,
			fmt.Sprintf(msgProcessingFailed, html.EscapeString(err.Error())))
		removeQuiet(tempPath)
		return
	}
	b.metrics.Bot.RecordIdentificationDuration("download", time.Since(downloadStart).Seconds())
	defer removeQuiet(tempPath)

	b.editHTML(msg.Chat.ID, status.MessageID, msgRecognizing)

	recognizeStart := time.Now()
	identification, err := b.recognizer.Identify(ctx, tempPath)
	b.metrics.API.RecordRequestDuration("plantnet", time.Since(recognizeStart).Seconds())
	if err != nil {
		logger.Info("Recognition failed",
			"error", err,
			"chat_id", msg.Chat.ID)
		b.metrics.Bot.RecordIdentification(metricspkg.LabelError)
		b.metrics.API.RecordRequest("plantnet", metricspkg.LabelError)
		b.metrics.API.RecordRequestError("plantnet", errorClass(err))
		b.editHTML(msg.Chat.ID, status.MessageID,
			fmt.Sprintf(msgRecognitionFailed, html.EscapeString(errorText(err))))
		return
	}
	b.metrics.API.RecordRequest("plantnet", metricspkg.LabelSuccess)
	b.metrics.Bot.RecordIdentificationDuration("recognize", time.Since(recognizeStart).Seconds())

	if err := b.store.RecordSpeciesOccurrence(identification.ScientificName, msg.Chat.ID); err != nil {
		b.metrics.Store.RecordOperation("species_occurrence", metricspkg.LabelError)
		logger.Error("Failed to record species occurrence",
			"error", err,
			"scientific_name", identification.ScientificName)
	} else {
		b.metrics.Store.RecordOperation("species_occurrence", metricspkg.LabelSuccess)
	}

	adviseStart := time.Now()
	advice, err := b.advisor.CareAdvice(ctx, identification.ScientificName)
	b.metrics.API.RecordRequestDuration("gemini", time.Since(adviseStart).Seconds())
	if err != nil {
		// Soft failure: the species is still reported without the briefing.
		logger.Warn("Care advice unavailable",
			"error", err,
			"scientific_name", identification.ScientificName)
		b.metrics.API.RecordRequest("gemini", metricspkg.LabelError)
		b.metrics.API.RecordRequestError("gemini", errorClass(err))
		advice = msgAdviceUnavailable
	} else {
		b.metrics.API.RecordRequest("gemini", metricspkg.LabelSuccess)
		b.metrics.Bot.RecordIdentificationDuration("advise", time.Since(adviseStart).Seconds())
	}

	reply := fmt.Sprintf(msgIdentified,
		html.EscapeString(identification.ScientificName),
		identification.Score*100,
		advice)
	b.editHTML(msg.Chat.ID, status.MessageID, reply)

	b.metrics.Bot.RecordIdentification(metricspkg.LabelSuccess)
	b.metrics.Bot.RecordIdentificationDuration("total", time.Since(start).Seconds())

	logger.Info("Photo identified",
		"chat_id", msg.Chat.ID,
		"scientific_name", identification.ScientificName,
		"score", identification.Score,
		"duration_ms", time.Since(start).Milliseconds())
}

// downloadPhoto fetches the highest resolution variant of the attached photo
// to destPath. Telegram lists variants smallest first.
func (b *Bot) downloadPhoto(ctx context.Context, msg *tgbotapi.Message, destPath string) error {
	photo := msg.Photo[len(msg.Photo)-1]

	fileURL, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		return errors.Newf("failed to resolve photo URL: %w", err).
			Category(errors.CategoryImageFetch).
			Context("file_id", photo.FileID).
			Component("telegram").
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create download request: %w", err).
			Category(errors.CategoryImageFetch).
			Component("telegram").
			Build()
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.Newf("photo download failed: %w", err).
			Category(errors.CategoryImageFetch).
			Component("telegram").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("photo download failed (status %d)", resp.StatusCode).
			Category(errors.CategoryImageFetch).
			Context("status_code", resp.StatusCode).
			Component("telegram").
			Build()
	}

	out, err := os.Create(destPath)
	if err != nil {
		return errors.Newf("failed to create temporary file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", destPath).
			Component("telegram").
			Build()
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return errors.Newf("failed to write temporary file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", destPath).
			Component("telegram").
			Build()
	}
	if err := out.Close(); err != nil {
		return errors.Newf("failed to close temporary file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", destPath).
			Component("telegram").
			Build()
	}

	return nil
}

// errorText extracts a user presentable description from a pipeline error.
func errorText(err error) string {
	if errors.IsCategory(err, errors.CategoryNotFound) {
		return "No plant species matched this photo."
	}
	return err.Error()
}

// errorClass maps a pipeline error to its metrics error-type label.
func errorClass(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return "unknown"
}

// removeQuiet deletes a file, ignoring a missing target.
func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove temporary file",
			"error", err,
			"path", path)
	}
}
