/**
 * Per-device scan orchestrator.
 *
 * Runs the worker state cycle: resolve the active schedule window,
 * align the device account with it, walk the feed for sponsored
 * candidates, classify them and persist confirmed arbitrage ads. The
 * schedule is re-resolved between pulls so a window change aborts the
 * pass instead of finishing it under the wrong account.
 */

package scanner

import (
	"context"
	"image"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/config"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/feed"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/schedule"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/sink"
)

const refreshSettleDelay = 5 * time.Second

// Classifier decides whether a creative is an arbitrage ad.
type Classifier interface {
	IsArbitrage(ctx context.Context, img image.Image, description string) bool
}

// Extractor pulls image, text and link off an ad candidate node.
type Extractor interface {
	Image(node device.Element) (image.Image, bool)
	Text(node device.Element) (string, bool)
	Link(ctx context.Context, node device.Element) (string, bool)
}

// ArtifactStore persists confirmed ads.
type ArtifactStore interface {
	Store(artifact sink.Artifact) (string, error)
}

// AccountManager reads and changes the device's active account.
type AccountManager interface {
	CurrentUser() (string, bool)
	ChangeUser(ctx context.Context, email string)
}

// Deps wires one worker's collaborators.
type Deps struct {
	Serial     string
	Config     *config.Config
	Device     device.Device
	App        *device.GoogleApp
	Traverser  *feed.Traverser
	Accounts   AccountManager
	Extractor  Extractor
	Classifier Classifier
	Store      ArtifactStore
	Entries    []schedule.Entry
	Logger     *logging.Logger
}

// Scanner drives the scan loop for a single device.
type Scanner struct {
	deps   Deps
	logger *logging.Logger
	now    func() time.Time
}

// New builds a scanner for one device.
func New(deps Deps) *Scanner {
	return &Scanner{
		deps:   deps,
		logger: deps.Logger.Child("scanner"),
		now:    time.Now,
	}
}

// Run executes the scan loop until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("worker starting", "serial", s.deps.Serial, "schedule_entries", len(s.deps.Entries))
	if len(s.deps.Entries) == 0 {
		s.logger.Warn("no schedule entries for device, worker will idle")
	}

	if err := s.deps.App.Start(); err != nil {
		s.logger.Error("app start failed", "error", err)
		return err
	}
	defer s.cleanup()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := schedule.Active(s.deps.Entries, s.now())
		if entry == nil {
			s.logger.Info("no active schedule window, waiting", "interval", s.deps.Config.WaitInterval)
			if err := sleepCtx(ctx, s.deps.Config.WaitInterval); err != nil {
				return err
			}
			continue
		}

		current, ok := s.deps.Accounts.CurrentUser()
		if !ok || current != entry.Email {
			s.logger.Info("account drift detected",
				"current", current, "target", entry.Email, "region", entry.Region)
			s.switchAccount(ctx, entry.Email)
			continue
		}

		aborted := s.scanPass(ctx, entry)
		if err := ctx.Err(); err != nil {
			return err
		}
		if aborted {
			// Window changed mid-pass; re-resolve before touching the feed.
			continue
		}

		if err := s.refreshFeed(ctx); err != nil {
			return err
		}
	}
}

// scanPass walks one feed pass under the given window. It reports true
// when the pass was aborted because the active window changed.
func (s *Scanner) scanPass(ctx context.Context, entry *schedule.Entry) bool {
	s.logger.Info("scan pass starting", "region", entry.Region, "email", entry.Email)

	seq := s.deps.Traverser.FindAds(s.deps.Config.MaxIterations)
	for {
		if ctx.Err() != nil {
			return true
		}
		active := schedule.Active(s.deps.Entries, s.now())
		if active == nil || active.Email != entry.Email || active.Region != entry.Region {
			s.logger.Info("schedule window changed, aborting pass", "region", entry.Region)
			return true
		}

		node, ok := seq.Next()
		if !ok {
			break
		}
		if node == nil {
			continue
		}
		s.handleCandidate(ctx, entry, node)
	}

	s.logger.Info("scan pass finished", "region", entry.Region)
	return false
}

// handleCandidate classifies one on-screen candidate and persists it
// when confirmed. Extraction of the link is deferred until after the
// verdict because it navigates away from the feed.
func (s *Scanner) handleCandidate(ctx context.Context, entry *schedule.Entry, node device.Element) {
	img, ok := s.deps.Extractor.Image(node)
	if !ok {
		return
	}
	text, _ := s.deps.Extractor.Text(node)

	if !s.deps.Classifier.IsArbitrage(ctx, img, text) {
		s.logger.Debug("candidate rejected by classifier")
		return
	}

	link, ok := s.deps.Extractor.Link(ctx, node)
	if !ok {
		s.logger.Warn("confirmed ad lost, link extraction failed")
		return
	}

	dir, err := s.deps.Store.Store(sink.Artifact{
		Serial: s.deps.Serial,
		Region: entry.Region,
		URL:    link,
		Text:   text,
		Image:  img,
	})
	if err != nil {
		s.logger.Error("artifact store failed", "error", err, "url", link)
		return
	}
	s.logger.Info("arbitrage ad stored", "dir", dir, "url", link)
}

// switchAccount aligns the device account with the schedule target and
// restarts the app so the feed is rebuilt for the new account.
func (s *Scanner) switchAccount(ctx context.Context, email string) {
	if err := s.deps.Traverser.GoToStartFeed(); err != nil {
		s.logger.Warn("feed reset before switch failed", "error", err)
	}
	s.deps.Accounts.ChangeUser(ctx, email)

	if err := s.deps.App.Close(); err != nil {
		s.logger.Warn("app close after switch failed", "error", err)
	}
	if err := s.deps.App.Start(); err != nil {
		s.logger.Warn("app restart after switch failed", "error", err)
	}
}

// refreshFeed restarts the app and forces a feed refresh between
// passes so the next pass sees new inventory.
func (s *Scanner) refreshFeed(ctx context.Context) error {
	if err := s.deps.App.Close(); err != nil {
		s.logger.Warn("app close for refresh failed", "error", err)
	}
	if err := s.deps.App.Start(); err != nil {
		s.logger.Warn("app start for refresh failed", "error", err)
	}
	if err := s.deps.Traverser.UpdateFeed(); err != nil {
		s.logger.Warn("feed refresh failed", "error", err)
	}
	return sleepCtx(ctx, refreshSettleDelay)
}

// cleanup returns the device to a neutral state on shutdown. The run
// context is usually already cancelled here, so recovery gets its own.
func (s *Scanner) cleanup() {
	s.logger.Info("worker stopping", "serial", s.deps.Serial)
	recoverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.deps.Traverser.BackToFeed(recoverCtx)
	if err := s.deps.App.Close(); err != nil {
		s.logger.Warn("app close on shutdown failed", "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
