package geometry

import "testing"

// TestRectDerivedValues checks width/height/center identities.
func TestRectDerivedValues(t *testing.T) {
	testCases := []struct {
		name                     string
		rect                     Rect
		wantWidth, wantHeight    int
		wantCenterX, wantCenterY int
	}{
		{
			name:      "simple",
			rect:      Rect{Left: 10, Top: 20, Right: 110, Bottom: 70},
			wantWidth: 100, wantHeight: 50,
			wantCenterX: 60, wantCenterY: 45,
		},
		{
			name:      "odd extents round down",
			rect:      Rect{Left: 0, Top: 0, Right: 5, Bottom: 3},
			wantWidth: 5, wantHeight: 3,
			wantCenterX: 2, wantCenterY: 1,
		},
		{
			name:      "degenerate",
			rect:      Rect{Left: 7, Top: 7, Right: 7, Bottom: 7},
			wantWidth: 0, wantHeight: 0,
			wantCenterX: 7, wantCenterY: 7,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rect.Width(); got != tc.wantWidth {
				t.Errorf("Width() = %d, want %d", got, tc.wantWidth)
			}
			if got := tc.rect.Height(); got != tc.wantHeight {
				t.Errorf("Height() = %d, want %d", got, tc.wantHeight)
			}
			cx, cy := tc.rect.Center()
			if cx != tc.wantCenterX || cy != tc.wantCenterY {
				t.Errorf("Center() = (%d,%d), want (%d,%d)", cx, cy, tc.wantCenterX, tc.wantCenterY)
			}
		})
	}
}

func TestNewRectValidation(t *testing.T) {
	if _, err := NewRect(10, 10, 5, 20); err == nil {
		t.Error("expected error for right < left")
	}
	if _, err := NewRect(10, 10, 20, 5); err == nil {
		t.Error("expected error for bottom < top")
	}
	if _, err := NewRect(0, 0, 0, 0); err != nil {
		t.Errorf("zero rect should be valid, got %v", err)
	}
}

func TestRectTranslate(t *testing.T) {
	r := Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}
	got := r.Translate(10, 100)
	want := Rect{Left: 11, Top: 102, Right: 13, Bottom: 104}
	if got != want {
		t.Errorf("Translate = %v, want %v", got, want)
	}
	if got.Width() != r.Width() || got.Height() != r.Height() {
		t.Error("translation must preserve extents")
	}
}
