// Package ai holds the clients for the external image-completion model and
// the vectorization service. Both are opaque collaborators behind one-method
// interfaces; the rest of the system never sees their wire formats.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/render"
)

const (
	// Retry budget for the completion call.
	MaxRetries = 3
	// Initial backoff; doubles per attempt.
	RetryBackoff = time.Second
)

// The completion prompt is configuration, not protocol: it constrains the
// model to stroke-only additions in the input's own palette and style.
const defaultSystemPrompt = `You are completing a simple hand-drawn whiteboard sketch.
Analyze the provided strokes, identify the subject, and add only the simple
strokes needed to logically complete it. Use exclusively the stroke colors,
thickness, and style already present in the image. Never fill regions with
solid color, never introduce new colors, and never add unrelated objects.
The background must stay white.`

// GeminiClient calls the Gemini image-generation REST API.
type GeminiClient struct {
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	temperature  float64
	backoff      time.Duration
	httpClient   *http.Client
}

// NewGeminiClient creates a completion-model client. An empty prompt keeps
// the default sketch-completion prompt.
func NewGeminiClient(apiKey, model, prompt string) *GeminiClient {
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return &GeminiClient{
		apiKey:       apiKey,
		model:        model,
		baseURL:      "https://generativelanguage.googleapis.com/v1beta",
		systemPrompt: prompt,
		temperature:  0.7,
		backoff:      RetryBackoff,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Contents         []content       `json:"contents"`
	GenerationConfig *generateConfig `json:"generationConfig,omitempty"`
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

type generateConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	Temperature        float64  `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Complete sends the raster to the model and returns its completed raster.
// Transient failures are retried with exponential backoff; an exhausted
// budget surfaces as apperr.ErrUpstreamUnavailable. Backoff sleeps respect
// ctx so an abandoned request does not leak the retry loop.
func (c *GeminiClient) Complete(ctx context.Context, img *render.Image) (*render.Image, error) {
	var lastErr error
	delay := c.backoff

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		out, err := c.generate(ctx, img)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == MaxRetries {
			break
		}
		log.Printf("[Gemini] Attempt %d failed: %v (retrying in %s)", attempt, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}

	return nil, apperr.E(apperr.ErrUpstreamUnavailable, "completion model: %v", lastErr)
}

func (c *GeminiClient) generate(ctx context.Context, img *render.Image) (*render.Image, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: img.MimeType,
					Data:     base64.StdEncoding.EncodeToString(img.Data),
				}},
				{Text: c.systemPrompt},
			},
		}},
		GenerationConfig: &generateConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			Temperature:        c.temperature,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion model returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("completion model response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("completion model returned no candidates")
	}

	for _, p := range parsed.Candidates[0].Content.Parts {
		if p.InlineData == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("completion model image payload: %w", err)
		}
		return &render.Image{MimeType: p.InlineData.MimeType, Data: data}, nil
	}
	return nil, fmt.Errorf("completion model returned no image part")
}

func truncateBody(b []byte) string {
	if len(b) > 256 {
		return string(b[:256]) + "..."
	}
	return string(b)
}
