// Package speech turns sentence text into spoken audio with the Gemini API.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-2.5-flash-preview-tts"
	DefaultVoice    = "Algenib"

	// The model answers with raw 16-bit little-endian mono PCM at 24 kHz.
	SampleRate  = 24000
	Channels    = 1
	SampleWidth = 2

	dataURIPrefix = "data:audio/wav;base64,"
	maxErrorBody  = 4096
)

var (
	// ErrMissingCredential is returned when neither the request nor the client
	// carries an API key.
	ErrMissingCredential = errors.New("missing Gemini API key")
	// ErrEmptyAudio is returned when the response holds no audio data.
	ErrEmptyAudio = errors.New("no audio returned from speech model")
)

// UpstreamError is a non-2xx answer from the speech service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("speech service returned %d", e.Status)
	}
	return fmt.Sprintf("speech service returned %d: %s", e.Status, e.Body)
}

// Request is one synthesis call. APIKey overrides the client default.
type Request struct {
	Text   string `json:"text"`
	APIKey string `json:"apiKey,omitempty"`
}

// Result carries the synthesized audio as a WAV data URI.
type Result struct {
	AudioDataURI string `json:"audioDataUri"`
}

// Client calls the generateContent endpoint.
type Client struct {
	HTTPClient *http.Client
	Endpoint   string
	Model      string
	Voice      string
	APIKey     string
	Logger     *zap.Logger
}

// NewClient returns a client with default endpoint, model and voice.
func NewClient(apiKey string) *Client {
	return &Client{
		HTTPClient: http.DefaultClient,
		Endpoint:   DefaultEndpoint,
		Model:      DefaultModel,
		Voice:      DefaultVoice,
		APIKey:     apiKey,
		Logger:     zap.NewNop(),
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Synthesize speaks req.Text. The call has no timeout of its own; cancel ctx
// to abandon it.
func (c *Client) Synthesize(ctx context.Context, req Request) (Result, error) {
	key := req.APIKey
	if key == "" {
		key = c.APIKey
	}
	if key == "" {
		return Result{}, ErrMissingCredential
	}
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, errors.New("text is required")
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Text}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	body.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = c.voice()
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.endpoint(), "/"), c.model())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", key)

	c.logger().Debug("requesting speech", zap.String("model", c.model()), zap.Int("chars", len(req.Text)))
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Result{}, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("failed to decode speech response: %w", err)
	}
	pcm, err := firstAudio(decoded)
	if err != nil {
		return Result{}, err
	}
	wav := EncodeWAV(pcm, Channels, SampleRate, SampleWidth)
	c.logger().Debug("speech ready", zap.Int("pcm_bytes", len(pcm)))
	return Result{AudioDataURI: dataURIPrefix + base64.StdEncoding.EncodeToString(wav)}, nil
}

func firstAudio(resp generateResponse) ([]byte, error) {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode audio: %w", err)
			}
			if len(pcm) == 0 {
				return nil, ErrEmptyAudio
			}
			return pcm, nil
		}
	}
	return nil, ErrEmptyAudio
}

// DecodeDataURI extracts the WAV bytes from a data URI returned by Synthesize.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, fmt.Errorf("not a WAV data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return raw, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) endpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

func (c *Client) model() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

func (c *Client) voice() string {
	if c.Voice == "" {
		return DefaultVoice
	}
	return c.Voice
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
