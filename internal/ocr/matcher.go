/**
 * Phrase matcher over OCR output.
 *
 * Finds the bounding box of a target word or phrase in an image. Small
 * feed text recognizes poorly at native resolution, so the matcher can
 * upscale the image before recognition and always maps the returned
 * coordinates back to the caller's space.
 */

package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

// Options controls preprocessing and match acceptance.
type Options struct {
	// Scale is an integer upscale factor applied before recognition.
	// 0 disables scaling; otherwise it must be one of 2, 4 or 8.
	Scale int
	// Contrast is a multiplicative enhancement factor, 1.0 = no-op.
	// The zero value is treated as 1.0.
	Contrast float64
	// MinConfidence is the per-word acceptance floor on the 0-100
	// scale. The zero value is treated as 60.
	MinConfidence float64
}

func (o Options) normalized() Options {
	if o.Contrast == 0 {
		o.Contrast = 1.0
	}
	if o.MinConfidence == 0 {
		o.MinConfidence = 60.0
	}
	return o
}

// Matcher locates words and phrases in images via an OCR engine.
type Matcher struct {
	engine Engine
	logger *logging.Logger
}

// NewMatcher creates a matcher on top of the given engine.
func NewMatcher(engine Engine, logger *logging.Logger) *Matcher {
	return &Matcher{engine: engine, logger: logger}
}

// FindMatch returns the bounding box of the first occurrence of phrase,
// or nil if the phrase is not found. Coordinates are in the original
// image's space regardless of Scale.
func (m *Matcher) FindMatch(img image.Image, phrase string, opts Options) (*Match, error) {
	target := splitPhrase(phrase)
	if len(target) == 0 {
		return nil, nil
	}

	result, err := m.recognize(img, opts)
	if err != nil {
		return nil, err
	}

	opts = opts.normalized()
	for i := 0; i+len(target) <= result.Len(); i++ {
		if matchesAt(result, target, i, opts.MinConfidence) {
			match := unionBox(result, i, len(target))
			m.logger.Debug("phrase located", "phrase", phrase, "index", i,
				"left", match.Left, "top", match.Top)
			return &match, nil
		}
	}
	return nil, nil
}

// FindAllMatches returns every non-overlapping occurrence of phrase in
// recognition order.
func (m *Matcher) FindAllMatches(img image.Image, phrase string, opts Options) ([]Match, error) {
	target := splitPhrase(phrase)
	if len(target) == 0 {
		return nil, nil
	}

	result, err := m.recognize(img, opts)
	if err != nil {
		return nil, err
	}

	opts = opts.normalized()
	var matches []Match
	for i := 0; i+len(target) <= result.Len(); {
		if matchesAt(result, target, i, opts.MinConfidence) {
			matches = append(matches, unionBox(result, i, len(target)))
			i += len(target)
			continue
		}
		i++
	}
	return matches, nil
}

// ExtractText returns all recognized words joined with single spaces.
func (m *Matcher) ExtractText(img image.Image, opts Options) (string, error) {
	result, err := m.recognize(img, opts)
	if err != nil {
		return "", err
	}

	words := make([]string, 0, result.Len())
	for _, w := range result.Text {
		if strings.TrimSpace(w) != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " "), nil
}

// recognize preprocesses the image, runs the engine and maps word
// coordinates back into the original image's space.
func (m *Matcher) recognize(img image.Image, opts Options) (*Result, error) {
	opts = opts.normalized()

	processed, err := preprocess(img, opts)
	if err != nil {
		return nil, err
	}

	result, err := m.engine.Recognize(processed)
	if err != nil {
		return nil, err
	}

	if opts.Scale > 1 {
		unscaleResult(result, opts.Scale)
	}
	return result, nil
}

func preprocess(img image.Image, opts Options) (image.Image, error) {
	switch opts.Scale {
	case 0, 2, 4, 8:
	default:
		return nil, fmt.Errorf("scale must be one of 2, 4, 8; got %d", opts.Scale)
	}

	out := img
	if opts.Scale > 1 {
		b := img.Bounds()
		out = imaging.Resize(out, b.Dx()*opts.Scale, b.Dy()*opts.Scale, imaging.Lanczos)
	}
	if opts.Contrast != 1.0 {
		out = imaging.AdjustContrast(out, contrastPercentage(opts.Contrast))
	}
	return out, nil
}

// contrastPercentage maps a multiplicative contrast factor onto the
// -100..100 percentage scale used by imaging.AdjustContrast.
func contrastPercentage(factor float64) float64 {
	p := (factor - 1.0) * 100.0
	if p > 100 {
		p = 100
	}
	if p < -100 {
		p = -100
	}
	return p
}

// unscaleResult maps word boxes from upscaled-image space back to the
// original: positions round down, extents round up, so the unscaled box
// never undershoots the text it covers.
func unscaleResult(r *Result, scale int) {
	for i := range r.Text {
		r.Top[i] /= scale
		r.Left[i] /= scale
		r.Width[i] = (r.Width[i] + scale - 1) / scale
		r.Height[i] = (r.Height[i] + scale - 1) / scale
	}
}

func splitPhrase(phrase string) []string {
	return strings.Fields(strings.ToLower(phrase))
}

// matchesAt reports whether target occurs at index i with every word at
// or above the confidence floor.
func matchesAt(r *Result, target []string, i int, minConfidence float64) bool {
	for j, want := range target {
		if r.Conf[i+j] < minConfidence {
			return false
		}
		if strings.ToLower(r.Text[i+j]) != want {
			return false
		}
	}
	return true
}

// unionBox returns the union of n word boxes starting at index i.
func unionBox(r *Result, i, n int) Match {
	top, left := r.Top[i], r.Left[i]
	right := r.Left[i] + r.Width[i]
	bottom := r.Top[i] + r.Height[i]
	for j := i + 1; j < i+n; j++ {
		if r.Top[j] < top {
			top = r.Top[j]
		}
		if r.Left[j] < left {
			left = r.Left[j]
		}
		if r.Left[j]+r.Width[j] > right {
			right = r.Left[j] + r.Width[j]
		}
		if r.Top[j]+r.Height[j] > bottom {
			bottom = r.Top[j] + r.Height[j]
		}
	}
	return Match{Top: top, Left: left, Width: right - left, Height: bottom - top}
}
