// Package gemini provides a client for the Google Gemini generateContent API,
// used to produce short plant-care briefings.
package gemini

import "time"

// request is the generateContent request body.
type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// response mirrors the parts of the generateContent response the bot consumes.
type response struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// Config holds configuration for the Gemini client
type Config struct {
	APIKey   string        `json:"api_key"`
	BaseURL  string        `json:"base_url"`
	Model    string        `json:"model"`
	Timeout  time.Duration `json:"timeout"`
	CacheTTL time.Duration `json:"cache_ttl"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://generativelanguage.googleapis.com/v1beta",
		Model:    "gemini-2.5-flash",
		Timeout:  30 * time.Second,
		CacheTTL: 6 * time.Hour,
	}
}
