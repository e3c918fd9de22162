package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/t-lnarr/plant/internal/conf"
	"github.com/t-lnarr/plant/internal/errors"
	"github.com/t-lnarr/plant/internal/logging"
)

// Package-level logger specific to plantnet service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "plantnet.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "plantnet", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize plantnet file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "plantnet")
		closeLogger = func() error { return nil }
	}
}

// Client provides methods for interacting with the Pl@ntNet API
type Client struct {
	config     Config
	httpClient *http.Client
	debug      bool

	firstCallMu sync.Once
}

// NewClient creates a new Pl@ntNet API client
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("Pl@ntNet API key is required").
			Category(errors.CategoryConfiguration).
			Component("plantnet").
			Build()
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Project == "" {
		config.Project = DefaultConfig().Project
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		debug: debug,
	}

	logger.Info("Pl@ntNet client initialized",
		"base_url", config.BaseURL,
		"project", config.Project,
		"debug", debug,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("Closing Pl@ntNet client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing plantnet logger: %v", err)
		}
	}
}

// Identify submits the image at imagePath for identification and returns the
// best match. A response with no results is reported as a not-found error so
// callers can tell "no plant recognized" apart from transport failures.
func (c *Client) Identify(ctx context.Context, imagePath string) (*Identification, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	file, err := os.Open(imagePath)
	if err != nil {
		return nil, errors.Newf("failed to open image: %w", err).
			Category(errors.CategoryFileIO).
			Context("image_path", imagePath).
			Component("plantnet").
			Build()
	}
	defer func() {
		_ = file.Close()
	}()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("images", filepath.Base(imagePath))
	if err != nil {
		return nil, errors.Newf("failed to build multipart form: %w", err).
			Category(errors.CategoryNetwork).
			Component("plantnet").
			Build()
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.Newf("failed to read image into form: %w", err).
			Category(errors.CategoryFileIO).
			Context("image_path", imagePath).
			Component("plantnet").
			Build()
	}
	if err := writer.WriteField("organs", "auto"); err != nil {
		return nil, errors.Newf("failed to build multipart form: %w", err).
			Category(errors.CategoryNetwork).
			Component("plantnet").
			Build()
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Newf("failed to finalize multipart form: %w", err).
			Category(errors.CategoryNetwork).
			Component("plantnet").
			Build()
	}

	requestURL := fmt.Sprintf("%s/%s?api-key=%s",
		c.config.BaseURL, c.config.Project, url.QueryEscape(c.config.APIKey))

	start := time.Now()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, requestURL, &body)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", c.config.BaseURL).
			Component("plantnet").
			Build()
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if c.debug {
		logger.Debug("Pl@ntNet API request",
			"project", c.config.Project,
			"image_path", imagePath)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Pl@ntNet API request failed",
			"error", err,
			"project", c.config.Project)
		return nil, errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", c.config.BaseURL).
			Component("plantnet").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Component("plantnet").
			Build()
	}

	if resp.StatusCode == http.StatusNotFound {
		// The API answers 404 when no species in the project matched.
		logger.Info("Pl@ntNet found no match",
			"project", c.config.Project,
			"status_code", resp.StatusCode)
		return nil, errors.Newf("no species matched the image").
			Category(errors.CategoryNotFound).
			Component("plantnet").
			Build()
	}
	if resp.StatusCode != http.StatusOK {
		responsePreview := string(bodyBytes)
		if len(responsePreview) > 500 {
			responsePreview = responsePreview[:500] + "..."
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Error("Pl@ntNet API authentication failed",
				"status_code", resp.StatusCode,
				"response_preview", responsePreview,
				"message", "Check your Pl@ntNet API key in the configuration")
		} else {
			logger.Error("Pl@ntNet API error",
				"status_code", resp.StatusCode,
				"response_preview", responsePreview)
		}
		return nil, errors.Newf("Pl@ntNet API error (status %d)", resp.StatusCode).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Component("plantnet").
			Build()
	}

	var parsed response
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		logger.Error("Failed to parse Pl@ntNet API response",
			"error", err,
			"response_size", len(bodyBytes))
		return nil, errors.Newf("failed to parse response: %w", err).
			Category(errors.CategoryFileParsing).
			Context("response_size", len(bodyBytes)).
			Component("plantnet").
			Build()
	}

	if len(parsed.Results) == 0 {
		logger.Info("Pl@ntNet returned no results",
			"project", c.config.Project)
		return nil, errors.Newf("no species matched the image").
			Category(errors.CategoryNotFound).
			Component("plantnet").
			Build()
	}

	best := parsed.Results[0]
	identification := &Identification{
		ScientificName: best.Species.ScientificNameWithoutAuthor,
		CommonNames:    best.Species.CommonNames,
		Score:          best.Score,
	}
	if identification.ScientificName == "" {
		identification.ScientificName = "Unknown"
	}

	duration := time.Since(start)

	c.firstCallMu.Do(func() {
		logger.Info("Pl@ntNet API authentication successful",
			"message", "Pl@ntNet API key is valid and working")
	})

	logger.Info("Plant identified",
		"scientific_name", identification.ScientificName,
		"score", identification.Score,
		"duration_ms", duration.Milliseconds())

	return identification, nil
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}
