package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/t-lnarr/plant/internal/conf"
	"github.com/t-lnarr/plant/internal/errors"
	"github.com/t-lnarr/plant/internal/logging"
	"github.com/t-lnarr/plant/internal/observability"
)

// Package-level logger specific to gemini service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "gemini.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "gemini", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize gemini file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "gemini")
		closeLogger = func() error { return nil }
	}
}

// carePromptTemplate is the single-turn briefing request. The species name is
// interpolated once; everything else is fixed.
const carePromptTemplate = `You are an assistant acting as an experienced plant caretaker. The user is asking about the plant '%s'. Answer in short, clear, practical terms.

Structure the answer with these sections:

1) General introduction
   - 2-3 sentences about the plant
   - Its origin or a distinguishing trait

2) Care guidance
   - Watering: how often, how, and warning signs
   - Light: direct sun tolerance and preferred brightness
   - Temperature: comfortable range, cold and heat tolerance
   - Soil: soil type and drainage needs
   - Fertilizing: season, frequency, and fertilizer type

3) Practical extras
   - Common problems and quick fixes
   - Humidity or climate preferences
   - Toxicity to animals, if relevant

Keep the whole answer around 150-200 words. Use a friendly, clear tone with a few emojis for decoration. Do not pad it, and do not open with greetings.`

// Client provides methods for interacting with the Gemini generateContent API
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	metrics    *observability.Metrics
	debug      bool

	firstCallMu sync.Once
}

// SetMetrics attaches a metrics instance so cache hits are counted.
func (c *Client) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// NewClient creates a new Gemini API client
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("Gemini API key is required").
			Category(errors.CategoryConfiguration).
			Component("gemini").
			Build()
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Model == "" {
		config.Model = DefaultConfig().Model
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}

	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: cache.New(config.CacheTTL, config.CacheTTL*2),
		debug: debug,
	}

	logger.Info("Gemini client initialized",
		"base_url", config.BaseURL,
		"model", config.Model,
		"cache_ttl", config.CacheTTL,
		"debug", debug,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("Closing Gemini client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing gemini logger: %v", err)
		}
	}
}

// CareAdvice requests a care briefing for the given species. Briefings for the
// same species are cached, so repeated identifications within the TTL do not
// hit the API again.
func (c *Client) CareAdvice(ctx context.Context, scientificName string) (string, error) {
	cacheKey := fmt.Sprintf("advice:%s", scientificName)

	if cached, found := c.cache.Get(cacheKey); found {
		if advice, ok := cached.(string); ok {
			if c.metrics != nil {
				c.metrics.API.RecordCacheHit("gemini")
			}
			logger.Debug("Care advice cache hit",
				"cache_key", cacheKey,
				"scientific_name", scientificName)
			return advice, nil
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload := request{
		Contents: []content{{
			Parts: []part{{Text: fmt.Sprintf(carePromptTemplate, scientificName)}},
		}},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Newf("failed to encode request body: %w", err).
			Category(errors.CategoryNetwork).
			Component("gemini").
			Build()
	}

	requestURL := fmt.Sprintf("%s/models/%s:generateContent", c.config.BaseURL, c.config.Model)

	start := time.Now()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("gemini").
			Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", c.config.APIKey)

	if c.debug {
		logger.Debug("Gemini API request",
			"model", c.config.Model,
			"scientific_name", scientificName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Gemini API request failed",
			"error", err,
			"model", c.config.Model)
		return "", errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("gemini").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Component("gemini").
			Build()
	}

	if resp.StatusCode != http.StatusOK {
		responsePreview := string(respBytes)
		if len(responsePreview) > 500 {
			responsePreview = responsePreview[:500] + "..."
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Error("Gemini API authentication failed",
				"status_code", resp.StatusCode,
				"response_preview", responsePreview,
				"message", "Check your Gemini API key in the configuration")
		} else {
			logger.Error("Gemini API error",
				"status_code", resp.StatusCode,
				"response_preview", responsePreview)
		}
		return "", errors.Newf("Gemini API error (status %d)", resp.StatusCode).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Component("gemini").
			Build()
	}

	var parsed response
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		logger.Error("Failed to parse Gemini API response",
			"error", err,
			"response_size", len(respBytes))
		return "", errors.Newf("failed to parse response: %w", err).
			Category(errors.CategoryFileParsing).
			Context("response_size", len(respBytes)).
			Component("gemini").
			Build()
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.Newf("Gemini response contained no candidates").
			Category(errors.CategoryNotFound).
			Context("scientific_name", scientificName).
			Component("gemini").
			Build()
	}

	advice := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if advice == "" {
		return "", errors.Newf("Gemini response contained empty text").
			Category(errors.CategoryNotFound).
			Context("scientific_name", scientificName).
			Component("gemini").
			Build()
	}

	c.cache.Set(cacheKey, advice, cache.DefaultExpiration)

	duration := time.Since(start)

	c.firstCallMu.Do(func() {
		logger.Info("Gemini API authentication successful",
			"message", "Gemini API key is valid and working")
	})

	logger.Info("Care advice generated",
		"scientific_name", scientificName,
		"advice_length", len(advice),
		"duration_ms", duration.Milliseconds())

	return advice, nil
}

// ClearCache clears all cached advice
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("Gemini advice cache cleared")
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	default:
		return errors.CategoryNetwork
	}
}
