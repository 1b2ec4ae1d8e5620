/**
 * Screen-space geometry for the scanner.
 *
 * Rect is used both for absolute screen coordinates (element bounds,
 * content area) and for crop-relative OCR results translated back into
 * screen space.
 */

package geometry

import "fmt"

// Rect is a rectangle in pixel space. Right and Bottom are exclusive
// edges, so Width and Height are plain differences.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// NewRect builds a Rect and validates edge ordering.
func NewRect(left, top, right, bottom int) (Rect, error) {
	r := Rect{Left: left, Top: top, Right: right, Bottom: bottom}
	if err := r.Validate(); err != nil {
		return Rect{}, err
	}
	return r, nil
}

// Validate checks the edge-ordering invariant.
func (r Rect) Validate() error {
	if r.Right < r.Left {
		return fmt.Errorf("invalid rect: right (%d) < left (%d)", r.Right, r.Left)
	}
	if r.Bottom < r.Top {
		return fmt.Errorf("invalid rect: bottom (%d) < top (%d)", r.Bottom, r.Top)
	}
	return nil
}

// Width returns the horizontal extent.
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns the vertical extent.
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Center returns the midpoint, rounded down.
func (r Rect) Center() (x, y int) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// Translate returns a copy shifted by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}
