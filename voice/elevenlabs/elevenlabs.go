// Package elevenlabs is a core.Synthesizer for the ElevenLabs text-to-speech
// REST API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/voiceagent/core"
)

// DefaultBaseURL is the public ElevenLabs API endpoint.
const DefaultBaseURL = "https://api.elevenlabs.io/v1"

// DefaultModelID is used when settings carry no model id.
const DefaultModelID = "eleven_monolingual_v1"

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("elevenlabs: api key not configured")
	// ErrUnauthorized is returned for rejected credentials.
	ErrUnauthorized = errors.New("elevenlabs: authentication failed")
	// ErrQuotaExceeded is returned when the account's character quota is used up.
	ErrQuotaExceeded = errors.New("elevenlabs: quota exceeded")
	// ErrVoiceNotFound is returned for unknown or invalid voice ids.
	ErrVoiceNotFound = errors.New("elevenlabs: voice not found or invalid")
)

var _ core.Synthesizer = (*Client)(nil)

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the ElevenLabs API.
type Client struct {
	opts Options
}

// New creates a Client.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{opts: opts}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.opts.APIKey != "" }

type voiceSettingsPayload struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechRequest struct {
	Text          string               `json:"text"`
	ModelID       string               `json:"model_id"`
	VoiceSettings voiceSettingsPayload `json:"voice_settings"`
}

// Synthesize renders text with voiceID and returns the audio bytes (mpeg).
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, s core.VoiceSettings) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if voiceID == "" {
		return nil, ErrVoiceNotFound
	}

	modelID := s.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}
	payload, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettingsPayload{
			Stability:       s.Stability,
			SimilarityBoost: s.SimilarityBoost,
			Style:           s.Style,
			UseSpeakerBoost: s.UseSpeakerBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.opts.BaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	return c.do(req)
}

// Voice describes an available voice.
type Voice struct {
	VoiceID    string            `json:"voice_id"`
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Labels     map[string]string `json:"labels"`
	PreviewURL string            `json:"preview_url"`
}

// ListVoices returns the voices available to the account.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse voices: %w", err)
	}
	return out.Voices, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("xi-api-key", c.opts.APIKey)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// parseAPIError maps an ElevenLabs error response to a sentinel when possible.
func parseAPIError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusUnprocessableEntity, http.StatusNotFound:
		return ErrVoiceNotFound
	case http.StatusBadRequest:
		var apiErr struct {
			Detail any `json:"detail"`
		}
		_ = json.Unmarshal(body, &apiErr)
		detail := fmt.Sprint(apiErr.Detail)
		if strings.Contains(strings.ToLower(detail), "quota") {
			return ErrQuotaExceeded
		}
		return fmt.Errorf("elevenlabs: invalid request: %s", detail)
	default:
		return fmt.Errorf("elevenlabs: API error (status %d): %s", statusCode, strings.TrimSpace(string(body)))
	}
}
