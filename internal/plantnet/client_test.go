package plantnet

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-lnarr/plant/internal/errors"
)

const identifyURL = "https://my-api.plantnet.org/v2/identify/all"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plant_42.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake-jpeg-bytes"), 0o644))
	return path
}

func successResponse() string {
	return `{
  "results": [
    {
      "score": 0.91234,
      "species": {
        "scientificNameWithoutAuthor": "Monstera deliciosa",
        "scientificNameAuthorship": "Liebm.",
        "commonNames": ["Swiss cheese plant", "Ceriman"]
      }
    },
    {
      "score": 0.04,
      "species": {
        "scientificNameWithoutAuthor": "Monstera adansonii",
        "commonNames": []
      }
    }
  ]
}`
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	client, err := NewClient(Config{})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestNewClientAppliesDefaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().BaseURL, client.config.BaseURL)
	assert.Equal(t, "all", client.config.Project)
	assert.Equal(t, 30*time.Second, client.config.Timeout)
}

func TestIdentifySuccess(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, identifyURL,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Equal(t, "auto", req.FormValue("organs"))
			require.Len(t, req.MultipartForm.File["images"], 1)
			assert.Equal(t, "test-key", req.URL.Query().Get("api-key"))
			return httpmock.NewStringResponse(http.StatusOK, successResponse()), nil
		})

	identification, err := client.Identify(context.Background(), writeTestImage(t))
	require.NoError(t, err)

	assert.Equal(t, "Monstera deliciosa", identification.ScientificName)
	assert.Equal(t, []string{"Swiss cheese plant", "Ceriman"}, identification.CommonNames)
	assert.InDelta(t, 0.91234, identification.Score, 0.0001)
}

func TestIdentifyNoResults(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, identifyURL,
		httpmock.NewStringResponder(http.StatusOK, `{"results": []}`))

	identification, err := client.Identify(context.Background(), writeTestImage(t))
	require.Error(t, err)
	assert.Nil(t, identification)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestIdentifyNotFoundStatus(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, identifyURL,
		httpmock.NewStringResponder(http.StatusNotFound, `{"statusCode": 404, "error": "Not Found"}`))

	identification, err := client.Identify(context.Background(), writeTestImage(t))
	require.Error(t, err)
	assert.Nil(t, identification)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestIdentifyHTTPError(t *testing.T) {
	client := newTestClient(t)

	tests := []struct {
		name       string
		statusCode int
		category   errors.ErrorCategory
	}{
		{"unauthorized", http.StatusUnauthorized, errors.CategoryConfiguration},
		{"too_many_requests", http.StatusTooManyRequests, errors.CategoryLimit},
		{"internal_server_error", http.StatusInternalServerError, errors.CategoryNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder(http.MethodPost, identifyURL,
				httpmock.NewStringResponder(tt.statusCode, `{"error": "nope"}`))

			identification, err := client.Identify(context.Background(), writeTestImage(t))
			require.Error(t, err)
			assert.Nil(t, identification)
			assert.True(t, errors.IsCategory(err, tt.category))
		})
	}
}

func TestIdentifyInvalidJSON(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, identifyURL,
		httpmock.NewStringResponder(http.StatusOK, `{invalid json`))

	identification, err := client.Identify(context.Background(), writeTestImage(t))
	require.Error(t, err)
	assert.Nil(t, identification)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestIdentifyMissingImage(t *testing.T) {
	client := newTestClient(t)

	identification, err := client.Identify(context.Background(), filepath.Join(t.TempDir(), "absent.jpg"))
	require.Error(t, err)
	assert.Nil(t, identification)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestIdentifyMissingScientificName(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, identifyURL,
		httpmock.NewStringResponder(http.StatusOK,
			`{"results": [{"score": 0.5, "species": {"commonNames": ["Mystery plant"]}}]}`))

	identification, err := client.Identify(context.Background(), writeTestImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Unknown", identification.ScientificName)
}
