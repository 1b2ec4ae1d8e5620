/**
 * Account rotation schedule.
 *
 * The schedule is merged at startup from two JSON documents: a
 * per-device map of region -> {start_time, end_time} and a global map
 * of region -> email. A region contributes an entry only when it
 * appears in both documents. Windows use "HH:MM" times and may wrap
 * past midnight.
 */

package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

// Entry is one region/account rotation window. Immutable after load.
type Entry struct {
	Region    string
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
	Email     string
}

type timeWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Load merges the device-schedule and region-emails documents for one
// device serial. A serial missing from the schedule yields an empty
// (not nil-error) schedule. Entries come back sorted by region so
// iteration order is deterministic.
func Load(schedulePath, emailsPath, serial string, logger *logging.Logger) ([]Entry, error) {
	scheduleRaw, err := os.ReadFile(schedulePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read device schedule: %w", err)
	}
	emailsRaw, err := os.ReadFile(emailsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read region emails: %w", err)
	}

	var deviceSchedules map[string]map[string]timeWindow
	if err := json.Unmarshal(scheduleRaw, &deviceSchedules); err != nil {
		return nil, fmt.Errorf("malformed device schedule: %w", err)
	}
	var regionEmails map[string]string
	if err := json.Unmarshal(emailsRaw, &regionEmails); err != nil {
		return nil, fmt.Errorf("malformed region emails: %w", err)
	}

	windows, ok := deviceSchedules[serial]
	if !ok {
		logger.Warn("device not present in schedule", "serial", serial)
		return []Entry{}, nil
	}

	entries := make([]Entry, 0, len(windows))
	for region, w := range windows {
		email, ok := regionEmails[region]
		if !ok {
			logger.Debug("region has no email mapping, skipping", "region", region)
			continue
		}
		entries = append(entries, Entry{
			Region:    region,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
			Email:     email,
		})
		logger.Debug("schedule entry added", "region", region, "start", w.StartTime, "end", w.EndTime)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Region < entries[j].Region
	})

	logger.Info("schedule loaded", "serial", serial, "entries", len(entries))
	return entries, nil
}

// contains reports whether the entry's window covers the "HH:MM"
// instant. Start is inclusive, end exclusive; a window whose start is
// after its end wraps past midnight.
func (e Entry) contains(hhmm string) bool {
	if e.StartTime > e.EndTime {
		return hhmm >= e.StartTime || hhmm < e.EndTime
	}
	return e.StartTime <= hhmm && hhmm < e.EndTime
}

// windowLength returns the window's duration in minutes, accounting for
// midnight wrap.
func (e Entry) windowLength() int {
	start := minutes(e.StartTime)
	end := minutes(e.EndTime)
	if start > end {
		return 24*60 - start + end
	}
	return end - start
}

func minutes(hhmm string) int {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// Active returns the entry whose window contains now, or nil. When
// windows overlap the smallest window wins, ties broken by region name,
// so the choice never depends on enumeration order.
func Active(entries []Entry, now time.Time) *Entry {
	hhmm := now.Format("15:04")

	var best *Entry
	for i := range entries {
		e := &entries[i]
		if !e.contains(hhmm) {
			continue
		}
		if best == nil ||
			e.windowLength() < best.windowLength() ||
			(e.windowLength() == best.windowLength() && e.Region < best.Region) {
			best = e
		}
	}
	return best
}
