/**
 * Tesseract engine - production OCR backend.
 *
 * Uses gosseract word-level bounding boxes so the matcher gets text,
 * confidence and geometry for every recognized word.
 */

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

const defaultLang = "eng"

// TesseractEngine handles OCR using a local Tesseract installation.
type TesseractEngine struct {
	lang string
}

// NewTesseractEngine creates an engine for the given language. Any
// language other than English is recognized alongside English, matching
// the behaviour of the feed this scanner reads.
func NewTesseractEngine(lang string) *TesseractEngine {
	if lang == "" {
		lang = defaultLang
	}
	return &TesseractEngine{lang: lang}
}

// Recognize runs word-level OCR over the image.
func (e *TesseractEngine) Recognize(img image.Image) (*Result, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	langs := []string{e.lang}
	if e.lang != defaultLang {
		langs = append(langs, defaultLang)
	}
	if err := client.SetLanguage(langs...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	// PSM 6: assume a single uniform block of text, the layout of a
	// cropped feed card.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	result := &Result{
		Text:   make([]string, 0, len(boxes)),
		Conf:   make([]float64, 0, len(boxes)),
		Left:   make([]int, 0, len(boxes)),
		Top:    make([]int, 0, len(boxes)),
		Width:  make([]int, 0, len(boxes)),
		Height: make([]int, 0, len(boxes)),
	}
	for _, b := range boxes {
		result.Text = append(result.Text, b.Word)
		result.Conf = append(result.Conf, b.Confidence)
		result.Left = append(result.Left, b.Box.Min.X)
		result.Top = append(result.Top, b.Box.Min.Y)
		result.Width = append(result.Width, b.Box.Dx())
		result.Height = append(result.Height, b.Box.Dy())
	}
	return result, nil
}
