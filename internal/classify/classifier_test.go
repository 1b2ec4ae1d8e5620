package classify

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/genai"

	scanerrors "github.com/akhmedovh4mid/GoogleAdsParser/internal/errors"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 32, 32))
}

func testClassifier(t *testing.T, generate func(ctx context.Context, parts []*genai.Part) (string, error)) *Classifier {
	t.Helper()
	return &Classifier{
		model:         "gemini-2.5-flash",
		prompt:        "classify the creative",
		minConfidence: 0.6,
		logger:        logging.NewLoggerWithLevel("classify-test", logging.LevelError),
		generate:      generate,
	}
}

func TestClassifyParsesVerdict(t *testing.T) {
	c := testClassifier(t, func(_ context.Context, _ []*genai.Part) (string, error) {
		return `{"label": "arbitrage", "confidence": 0.82}`, nil
	})

	result, err := c.Classify(context.Background(), testImage(), "")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Label != LabelArbitrage {
		t.Errorf("expected label %q, got %q", LabelArbitrage, result.Label)
	}
	if result.Confidence != 0.82 {
		t.Errorf("expected confidence 0.82, got %g", result.Confidence)
	}
}

func TestClassifyRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not JSON", "the creative looks sponsored"},
		{"unknown label", `{"label": "maybe", "confidence": 0.9}`},
		{"confidence above one", `{"label": "arbitrage", "confidence": 1.5}`},
		{"negative confidence", `{"label": "non_arbitrage", "confidence": -0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier(t, func(_ context.Context, _ []*genai.Part) (string, error) {
				return tt.response, nil
			})
			if _, err := c.Classify(context.Background(), testImage(), ""); err == nil {
				t.Errorf("expected error for response %q", tt.response)
			}
		})
	}
}

func TestClassifyPassesDescriptionAsContext(t *testing.T) {
	var seen []*genai.Part
	c := testClassifier(t, func(_ context.Context, parts []*genai.Part) (string, error) {
		seen = parts
		return `{"label": "non_arbitrage", "confidence": 0.7}`, nil
	})

	if _, err := c.Classify(context.Background(), testImage(), "Best deals today"); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(seen))
	}
	if seen[0].Text != "Context: Best deals today" {
		t.Errorf("unexpected context part: %q", seen[0].Text)
	}
	if len(seen[1].InlineData.Data) == 0 || seen[1].InlineData.MIMEType != "image/png" {
		t.Errorf("expected PNG inline data part")
	}

	seen = nil
	if _, err := c.Classify(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("expected image-only request without description, got %d parts", len(seen))
	}
}

func TestClassifyReportsCallFailure(t *testing.T) {
	c := testClassifier(t, func(_ context.Context, _ []*genai.Part) (string, error) {
		return "", fmt.Errorf("quota exceeded")
	})
	c.serial = "emulator-5554"

	_, err := c.Classify(context.Background(), testImage(), "")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	scanErr, ok := err.(*scanerrors.ScanError)
	if !ok {
		t.Fatalf("error type = %T, want *errors.ScanError", err)
	}
	if scanErr.Code != scanerrors.ErrorClassifyFailed {
		t.Errorf("error code = %s, want %s", scanErr.Code, scanerrors.ErrorClassifyFailed)
	}
	if scanErr.Serial != "emulator-5554" {
		t.Errorf("error serial = %q, want device serial", scanErr.Serial)
	}
}

func TestClassifyRetriesTransientFailures(t *testing.T) {
	calls := 0
	c := testClassifier(t, func(_ context.Context, _ []*genai.Part) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("transient failure %d", calls)
		}
		return `{"label": "arbitrage", "confidence": 0.9}`, nil
	})

	result, err := c.Classify(context.Background(), testImage(), "")
	if err != nil {
		t.Fatalf("Classify failed after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if result.Label != LabelArbitrage {
		t.Errorf("unexpected label %q", result.Label)
	}
}

func TestIsArbitrage(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     bool
	}{
		{"confident arbitrage", `{"label": "arbitrage", "confidence": 0.82}`, nil, true},
		{"at threshold", `{"label": "arbitrage", "confidence": 0.6}`, nil, true},
		{"below threshold", `{"label": "arbitrage", "confidence": 0.5}`, nil, false},
		{"confident non-arbitrage", `{"label": "non_arbitrage", "confidence": 0.95}`, nil, false},
		{"model failure", "", fmt.Errorf("quota exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier(t, func(_ context.Context, _ []*genai.Part) (string, error) {
				return tt.response, tt.err
			})
			if got := c.IsArbitrage(context.Background(), testImage(), ""); got != tt.want {
				t.Errorf("IsArbitrage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte("  classify this creative  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	prompt, err := LoadPrompt(path)
	if err != nil {
		t.Fatalf("LoadPrompt failed: %v", err)
	}
	if prompt != "classify this creative" {
		t.Errorf("unexpected prompt %q", prompt)
	}

	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("   \n\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPrompt(blank); err == nil {
		t.Error("expected error for blank prompt")
	}

	if _, err := LoadPrompt(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing prompt file")
	}
}
