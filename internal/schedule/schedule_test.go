package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 1, 15, hour, minute, 0, 0, time.UTC)
}

var testLogger = logging.NewLoggerWithLevel("schedule-test", logging.LevelError)

func TestActiveWindowEvaluation(t *testing.T) {
	day := Entry{Region: "us", StartTime: "09:00", EndTime: "17:00", Email: "us@example.com"}
	night := Entry{Region: "jp", StartTime: "22:00", EndTime: "06:00", Email: "jp@example.com"}

	testCases := []struct {
		name       string
		entries    []Entry
		now        time.Time
		wantRegion string // "" = no active entry
	}{
		{"day window mid", []Entry{day}, at(12, 0), "us"},
		{"day window start inclusive", []Entry{day}, at(9, 0), "us"},
		{"day window end exclusive", []Entry{day}, at(17, 0), ""},
		{"wrap window before midnight", []Entry{night}, at(23, 30), "jp"},
		{"wrap window after midnight", []Entry{night}, at(2, 0), "jp"},
		{"wrap window inactive at noon", []Entry{night}, at(12, 0), ""},
		{"wrap window start inclusive", []Entry{night}, at(22, 0), "jp"},
		{"wrap window end exclusive", []Entry{night}, at(6, 0), ""},
		{"no entries", nil, at(12, 0), ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Active(tc.entries, tc.now)
			if tc.wantRegion == "" {
				if got != nil {
					t.Fatalf("Active = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Region != tc.wantRegion {
				t.Fatalf("Active = %+v, want region %q", got, tc.wantRegion)
			}
		})
	}
}

// Overlapping windows resolve to the smallest window, region name
// breaking ties, so the pick is deterministic.
func TestActiveOverlapDeterministic(t *testing.T) {
	wide := Entry{Region: "aa", StartTime: "08:00", EndTime: "20:00", Email: "wide@example.com"}
	narrow := Entry{Region: "zz", StartTime: "11:00", EndTime: "13:00", Email: "narrow@example.com"}

	got := Active([]Entry{wide, narrow}, at(12, 0))
	if got == nil || got.Region != "zz" {
		t.Fatalf("Active = %+v, want the narrow window", got)
	}

	// Same length: region order decides, regardless of slice order.
	a := Entry{Region: "br", StartTime: "10:00", EndTime: "14:00", Email: "a@example.com"}
	b := Entry{Region: "de", StartTime: "11:00", EndTime: "15:00", Email: "b@example.com"}
	for _, entries := range [][]Entry{{a, b}, {b, a}} {
		got := Active(entries, at(12, 0))
		if got == nil || got.Region != "br" {
			t.Fatalf("Active = %+v, want region br", got)
		}
	}
}

func TestWindowLengthWrap(t *testing.T) {
	e := Entry{StartTime: "22:00", EndTime: "06:00"}
	if got := e.windowLength(); got != 8*60 {
		t.Errorf("windowLength = %d, want %d", got, 8*60)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMergesDocuments(t *testing.T) {
	dir := t.TempDir()
	schedulePath := writeFile(t, dir, "device_schedule.json", `{
		"SER123": {
			"us": {"start_time": "09:00", "end_time": "17:00"},
			"jp": {"start_time": "22:00", "end_time": "06:00"},
			"unmapped": {"start_time": "00:00", "end_time": "01:00"}
		}
	}`)
	emailsPath := writeFile(t, dir, "region_emails.json", `{
		"us": "us@example.com",
		"jp": "jp@example.com",
		"extra": "extra@example.com"
	}`)

	entries, err := Load(schedulePath, emailsPath, "SER123", testLogger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// "unmapped" has no email, "extra" has no window: both excluded.
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	// Sorted by region.
	if entries[0].Region != "jp" || entries[1].Region != "us" {
		t.Errorf("entries not sorted by region: %+v", entries)
	}
	if entries[1].Email != "us@example.com" || entries[1].StartTime != "09:00" {
		t.Errorf("merge mismatch: %+v", entries[1])
	}
}

func TestLoadUnknownSerialIsEmpty(t *testing.T) {
	dir := t.TempDir()
	schedulePath := writeFile(t, dir, "device_schedule.json", `{"OTHER": {}}`)
	emailsPath := writeFile(t, dir, "region_emails.json", `{}`)

	entries, err := Load(schedulePath, emailsPath, "SER123", testLogger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestLoadMalformedDocuments(t *testing.T) {
	dir := t.TempDir()
	schedulePath := writeFile(t, dir, "device_schedule.json", `{not json`)
	emailsPath := writeFile(t, dir, "region_emails.json", `{}`)

	if _, err := Load(schedulePath, emailsPath, "SER123", testLogger); err == nil {
		t.Error("expected error for malformed schedule document")
	}
	if _, err := Load(filepath.Join(dir, "missing.json"), emailsPath, "SER123", testLogger); err == nil {
		t.Error("expected error for missing schedule document")
	}
}
