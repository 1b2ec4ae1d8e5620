/**
 * Arbitrage classifier.
 *
 * Sends the ad creative to a Gemini vision model with a fixed system
 * prompt and parses a strict JSON verdict. A malformed response fails
 * that one classification only; callers fall back to non-arbitrage.
 */

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/errors"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

// Classification labels.
const (
	LabelArbitrage    = "arbitrage"
	LabelNonArbitrage = "non_arbitrage"
)

const requestTimeout = 120 * time.Second

// Result is the model's verdict on one creative.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Config holds classifier construction parameters.
type Config struct {
	Serial        string
	APIKey        string
	Model         string
	Prompt        string
	ProxyURL      string
	MinConfidence float64
}

// Classifier classifies ad creatives for traffic arbitrage.
type Classifier struct {
	serial        string
	model         string
	prompt        string
	minConfidence float64
	cache         *Cache
	logger        *logging.Logger

	// generate performs one model call; swapped out in tests.
	generate func(ctx context.Context, parts []*genai.Part) (string, error)
}

// LoadPrompt reads the system prompt; an absent or blank prompt is a
// startup-fatal configuration error.
func LoadPrompt(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	prompt := strings.TrimSpace(string(raw))
	if prompt == "" {
		return "", fmt.Errorf("prompt file is empty: %s", path)
	}
	return prompt, nil
}

// NewClassifier creates a Gemini-backed classifier. cache may be nil.
func NewClassifier(ctx context.Context, cfg Config, cache *Cache, logger *logging.Logger) (*Classifier, error) {
	if strings.TrimSpace(cfg.Prompt) == "" {
		return nil, fmt.Errorf("classification prompt must not be empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = 0.6
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := &Classifier{
		serial:        cfg.Serial,
		model:         cfg.Model,
		prompt:        cfg.Prompt,
		minConfidence: cfg.MinConfidence,
		cache:         cache,
		logger:        logger.Child("classify"),
	}
	c.generate = func(ctx context.Context, parts []*genai.Part) (string, error) {
		contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
		genCfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(c.prompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0.1),
			MaxOutputTokens:   500,
		}
		resp, err := client.Models.GenerateContent(ctx, c.model, contents, genCfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	logger.Info("classifier initialized", "model", cfg.Model, "proxy", cfg.ProxyURL != "")
	return c, nil
}

// Classify returns the model's verdict for one creative. description,
// when non-empty, is passed as textual context alongside the image.
func (c *Classifier) Classify(ctx context.Context, img image.Image, description string) (*Result, error) {
	if c.cache != nil {
		if result, ok := c.cache.Get(ctx, img); ok {
			c.logger.Debug("classification cache hit", "label", result.Label)
			return result, nil
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode creative: %w", err)
	}

	var parts []*genai.Part
	if description != "" {
		parts = append(parts, genai.NewPartFromText("Context: "+description))
	}
	parts = append(parts, genai.NewPartFromBytes(buf.Bytes(), "image/png"))

	var raw string
	err := retry.Do(
		func() error {
			var err error
			raw, err = c.generate(ctx, parts)
			return err
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("classification retry", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, errors.NewClassifyFailedError(c.serial, err)
	}

	result, err := parseResult(raw)
	if err != nil {
		c.logger.Error("malformed classification response", "error", err, "response", raw)
		return nil, err
	}

	c.logger.Info("creative classified", "label", result.Label, "confidence", result.Confidence)
	if c.cache != nil {
		c.cache.Set(ctx, img, result)
	}
	return result, nil
}

// IsArbitrage reports whether the creative classifies as arbitrage at
// or above the configured confidence floor. Any classification failure
// degrades to false.
func (c *Classifier) IsArbitrage(ctx context.Context, img image.Image, description string) bool {
	result, err := c.Classify(ctx, img, description)
	if err != nil {
		c.logger.Error("arbitrage check failed", "error", err)
		return false
	}
	return result.Label == LabelArbitrage && result.Confidence >= c.minConfidence
}

func parseResult(raw string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification JSON: %w", err)
	}
	if result.Label != LabelArbitrage && result.Label != LabelNonArbitrage {
		return nil, fmt.Errorf("unexpected label %q", result.Label)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, fmt.Errorf("confidence %g out of range", result.Confidence)
	}
	return &result, nil
}
