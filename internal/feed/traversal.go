/**
 * Feed traversal engine.
 *
 * Walks the Discover feed one viewport at a time: find the "sponsored"
 * marker via OCR, scroll the ad into a stable position, pick the feed
 * child that carries it, and hand the candidate to the caller. The
 * "More stories" control fences the end of the feed.
 */

package feed

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/disintegration/imaging"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/errors"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/geometry"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/ocr"
)

// SponsorPhrase is the literal marker identifying paid feed items.
const SponsorPhrase = "sponsored"

const (
	minSwipeLength     = 35   // px; shorter swipes are jitter, skipped
	swipeSpeedFactor   = 2000 // px per second for normal swipes
	refreshSpeedFactor = 15000
	scrollEdgeOffset   = 100 // px inset from content-area edges
	adEdgeOffset       = 150 // px above the sponsor marker to grab
	topbarPullHeight   = 250
	clickTimeout       = 15 * time.Second
	backPressDelay     = 500 * time.Millisecond
)

// PhraseMatcher locates a word or phrase in an image.
type PhraseMatcher interface {
	FindMatch(img image.Image, phrase string, opts ocr.Options) (*ocr.Match, error)
}

// Traverser drives feed navigation on one device.
type Traverser struct {
	dev         device.Device
	nodes       *device.Nodes
	matcher     PhraseMatcher
	logger      *logging.Logger
	screenWidth int
	actionPause time.Duration
	backRetries int
}

// NewTraverser builds a traverser for the device. actionPause is the
// settle delay after UI transitions.
func NewTraverser(dev device.Device, nodes *device.Nodes, matcher PhraseMatcher,
	logger *logging.Logger, actionPause time.Duration, backRetries int) (*Traverser, error) {
	info, err := dev.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read device info: %w", err)
	}
	return &Traverser{
		dev:         dev,
		nodes:       nodes,
		matcher:     matcher,
		logger:      logger.Child("feed"),
		screenWidth: info.DisplayWidth,
		actionPause: actionPause,
		backRetries: backRetries,
	}, nil
}

// ContentArea computes the scrollable viewport: the feed container's
// bounds minus the search box above and the navigation bar below.
func (t *Traverser) ContentArea() (geometry.Rect, error) {
	area, err := t.nodes.App.Bounds()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("feed container bounds: %w", err)
	}

	if t.nodes.SearchBox.Exists() {
		if sb, err := t.nodes.SearchBox.Bounds(); err == nil {
			area.Top = sb.Bottom
		}
	}
	if t.nodes.NavigationBar.Exists() {
		if nb, err := t.nodes.NavigationBar.Bounds(); err == nil {
			area.Bottom = nb.Top
		}
	}
	return area, nil
}

// swipe performs a vertical swipe along the screen's center line.
// Swipes shorter than minSwipeLength are skipped.
func (t *Traverser) swipe(startY, endY, speedFactor int, pause time.Duration) error {
	length := startY - endY
	if length < 0 {
		length = -length
	}
	if length < minSwipeLength {
		t.logger.Debug("swipe skipped, below minimum length", "length", length)
		return nil
	}

	duration := time.Duration(float64(length) / float64(speedFactor) * float64(time.Second))
	x := t.screenWidth / 2
	err := t.dev.SwipePoints([]image.Point{{X: x, Y: startY}, {X: x, Y: endY}}, duration)
	if err != nil {
		return fmt.Errorf("swipe failed: %w", err)
	}
	time.Sleep(pause)
	return nil
}

// Swipe performs a vertical swipe between two screen heights at the
// normal speed. Shared with the account switcher, which scrolls lists
// outside the feed viewport.
func (t *Traverser) Swipe(startY, endY int) error {
	return t.swipe(startY, endY, swipeSpeedFactor, t.actionPause)
}

// findSponsored looks for the sponsor marker inside the content area
// and returns its absolute screen rectangle. A visible "More stories"
// control means the marker belongs to the end-of-feed block, not an ad.
func (t *Traverser) findSponsored() (*geometry.Rect, error) {
	area, err := t.ContentArea()
	if err != nil {
		return nil, err
	}

	screen, err := t.dev.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	content := imaging.Crop(screen, image.Rect(area.Left, area.Top, area.Right, area.Bottom))

	match, err := t.matcher.FindMatch(content, SponsorPhrase, ocr.Options{Scale: 2, Contrast: 2.0})
	if err != nil {
		return nil, errors.NewOCRFailedError(t.dev.Serial(), err)
	}
	if match == nil || t.nodes.MoreStories.Exists() {
		return nil, nil
	}

	abs := geometry.Rect{
		Left:   match.Left,
		Top:    match.Top,
		Right:  match.Right(),
		Bottom: match.Bottom(),
	}.Translate(area.Left, area.Top)
	return &abs, nil
}

// scrollToAd swipes the detected ad into a stable viewing position at
// the top of the content area.
func (t *Traverser) scrollToAd(ad geometry.Rect) error {
	area, err := t.ContentArea()
	if err != nil {
		return err
	}
	return t.swipe(ad.Top-adEdgeOffset, area.Top, swipeSpeedFactor, t.actionPause)
}

// scrollContent advances the feed by one page.
func (t *Traverser) scrollContent() error {
	area, err := t.ContentArea()
	if err != nil {
		return err
	}
	return t.swipe(area.Bottom-scrollEdgeOffset, area.Top+scrollEdgeOffset, swipeSpeedFactor, t.actionPause)
}

// AdNode picks the most plausible ad container: the tallest view-group
// child of the feed that fits the viewport and whose screenshot carries
// the sponsor marker. First-found wins on equal heights.
func (t *Traverser) AdNode() (device.Element, error) {
	area, err := t.ContentArea()
	if err != nil {
		return nil, err
	}
	viewportHeight := area.Height()

	children, err := t.nodes.App.Children(device.SelViewGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate feed children: %w", err)
	}

	var candidate device.Element
	candidateHeight := 0
	for _, node := range children {
		bounds, err := node.Bounds()
		if err != nil {
			t.logger.Warn("skipping feed child", "error", err)
			continue
		}
		height := bounds.Height()
		if height > viewportHeight || height <= candidateHeight {
			continue
		}

		img, err := node.Screenshot()
		if err != nil {
			t.logger.Warn("feed child screenshot failed", "error", err)
			continue
		}
		match, err := t.matcher.FindMatch(img, SponsorPhrase, ocr.Options{})
		if err != nil {
			t.logger.Warn("feed child recognition failed", "error", err)
			continue
		}
		if match != nil {
			candidate = node
			candidateHeight = height
		}
	}
	return candidate, nil
}

// process runs one detection step: locate the sponsor marker, scroll it
// into position and resolve the carrying node.
func (t *Traverser) process() device.Element {
	sponsored, err := t.findSponsored()
	if err != nil {
		t.logger.Warn("sponsor detection failed", "error", err)
		return nil
	}
	if sponsored == nil {
		return nil
	}

	if err := t.scrollToAd(*sponsored); err != nil {
		t.logger.Warn("scroll to ad failed", "error", err)
		return nil
	}
	node, err := t.AdNode()
	if err != nil {
		t.logger.Warn("ad node lookup failed", "error", err)
		return nil
	}
	return node
}

// AdSequence is a finite, non-restartable pull sequence of ad
// candidates. Each pull performs one traversal iteration; a nil
// candidate with ok=true means the iteration found nothing.
type AdSequence struct {
	t             *Traverser
	maxIterations int
	iteration     int
	adsFound      int
	pendingScroll bool
	done          bool
}

// FindAds starts a fresh scan pass over the feed. The sequence ends at
// the "More stories" fence or after maxIterations pulls; call FindAds
// again for a new pass.
func (t *Traverser) FindAds(maxIterations int) *AdSequence {
	t.logger.Info("starting ad scan pass", "max_iterations", maxIterations)
	return &AdSequence{t: t, maxIterations: maxIterations}
}

// Next runs one traversal iteration. The page scroll that follows an
// iteration is deferred to the start of the next pull so the caller can
// interact with the candidate while it is still on screen.
func (s *AdSequence) Next() (device.Element, bool) {
	if s.done {
		return nil, false
	}
	if s.pendingScroll {
		if err := s.t.scrollContent(); err != nil {
			s.t.logger.Warn("content scroll failed", "error", err)
		}
		s.pendingScroll = false
	}
	if s.t.nodes.MoreStories.Exists() || s.iteration >= s.maxIterations {
		s.done = true
		s.t.logger.Info("ad scan pass finished", "iterations", s.iteration, "ads_found", s.adsFound)
		return nil, false
	}

	s.iteration++
	s.t.logger.Debug("scan iteration", "iteration", s.iteration)

	if s.iteration == 1 {
		// Align any ad already on screen before the first pass.
		if sponsored, err := s.t.findSponsored(); err == nil && sponsored != nil {
			if err := s.t.scrollToAd(*sponsored); err != nil {
				s.t.logger.Warn("initial scroll to ad failed", "error", err)
			}
		}
	}

	node := s.t.process()
	if node != nil {
		s.adsFound++
		s.t.logger.Info("ad candidate located", "count", s.adsFound)
	}
	s.pendingScroll = true
	return node, true
}

// GoToStartFeed resets the feed to its top via the home control and a
// pair of settle swipes. It is a no-op while the account-selection disc
// is visible, which means the feed is already in its start state.
func (t *Traverser) GoToStartFeed() error {
	if t.nodes.SelectedAccount.Exists() {
		return nil
	}

	area, err := t.ContentArea()
	if err != nil {
		return err
	}
	if err := t.swipe(area.Top+scrollEdgeOffset, area.Top+scrollEdgeOffset+topbarPullHeight, swipeSpeedFactor, t.actionPause); err != nil {
		return err
	}

	if !t.nodes.Home.Click(clickTimeout) {
		t.logger.Warn("home control click failed")
	}
	time.Sleep(t.actionPause)

	area, err = t.ContentArea()
	if err != nil {
		return err
	}
	if err := t.swipe(area.Bottom-scrollEdgeOffset, area.Bottom-scrollEdgeOffset-topbarPullHeight, swipeSpeedFactor, t.actionPause); err != nil {
		return err
	}

	area, err = t.ContentArea()
	if err != nil {
		return err
	}
	return t.swipe(area.Top+scrollEdgeOffset, area.Top+scrollEdgeOffset+topbarPullHeight, swipeSpeedFactor, t.actionPause)
}

// UpdateFeed returns to the top of the feed and forces a refresh with
// one fast full-height swipe.
func (t *Traverser) UpdateFeed() error {
	if err := t.GoToStartFeed(); err != nil {
		return err
	}
	area, err := t.ContentArea()
	if err != nil {
		return err
	}
	return t.swipe(area.Top+scrollEdgeOffset, area.Bottom-scrollEdgeOffset, refreshSpeedFactor, 250*time.Millisecond)
}

// BackToFeed presses "back" until the feed container reappears, up to
// the configured retry budget. Exhaustion is best-effort, not an error.
func (t *Traverser) BackToFeed(ctx context.Context) {
	err := retry.Do(
		func() error {
			if t.nodes.App.Exists() {
				return nil
			}
			if err := t.dev.Press("back"); err != nil {
				return err
			}
			return fmt.Errorf("feed not visible yet")
		},
		retry.Attempts(uint(t.backRetries)),
		retry.Delay(backPressDelay),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		t.logger.Warn("back-navigation recovery exhausted", "error", err)
	}
}
