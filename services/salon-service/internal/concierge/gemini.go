package concierge

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
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

var ErrNotConfigured = errors.New("generative text service not configured")

// Generator turns a prompt, optionally with a JPEG image, into text.
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
}

type GeminiConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// GeminiClient calls the generateContent REST method.
type GeminiClient struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	http        *http.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	return &GeminiClient{
		endpoint:    strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []part `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	var body generateRequest
	parts := []part{{Text: prompt}}
	if len(image) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(image),
		}})
	}
	body.Contents = append(body.Contents, struct {
		Parts []part `json:"parts"`
	}{Parts: parts})
	body.GenerationConfig.Temperature = g.temperature

	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("generateContent returned %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", err
	}
	var text strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		break
	}
	return strings.TrimSpace(text.String()), nil
}
