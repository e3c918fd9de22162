// Package plantnet provides a client for the Pl@ntNet identification API v2
package plantnet

import "time"

// Identification is the distilled outcome of a recognition request: the best
// match from the API response.
type Identification struct {
	ScientificName string   `json:"scientific_name"`
	CommonNames    []string `json:"common_names,omitempty"`
	Score          float64  `json:"score"`
}

// response mirrors the parts of the Pl@ntNet JSON response the bot consumes.
type response struct {
	Results []result `json:"results"`
}

type result struct {
	Score   float64 `json:"score"`
	Species species `json:"species"`
}

type species struct {
	ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
	CommonNames                 []string `json:"commonNames"`
}

// Config holds configuration for the Pl@ntNet client
type Config struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Project string        `json:"project"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://my-api.plantnet.org/v2/identify",
		Project: "all",
		Timeout: 30 * time.Second,
	}
}
