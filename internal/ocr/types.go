/**
 * OCR types - shared data structures for text recognition.
 *
 * Result mirrors the word-level output of the recognizer as parallel
 * arrays: Text[i], Conf[i] and the box slices all describe word i.
 */

package ocr

import "image"

// Result represents word-level recognition output.
type Result struct {
	Text   []string
	Conf   []float64 // per-word confidence, 0-100
	Left   []int
	Top    []int
	Width  []int
	Height []int
}

// Len returns the number of recognized words.
func (r *Result) Len() int {
	return len(r.Text)
}

// Match is a located word or phrase in the coordinate space of the
// image handed to the matcher (scaling is always undone before a Match
// is returned).
type Match struct {
	Top    int
	Left   int
	Width  int
	Height int
}

// Bottom returns the lower edge of the match.
func (m Match) Bottom() int {
	return m.Top + m.Height
}

// Right returns the right edge of the match.
func (m Match) Right() int {
	return m.Left + m.Width
}

// Center returns the midpoint of the match.
func (m Match) Center() (x, y int) {
	return m.Left + m.Width/2, m.Top + m.Height/2
}

// Engine performs text recognition on an image.
type Engine interface {
	Recognize(img image.Image) (*Result, error)
}
