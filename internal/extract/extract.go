/**
 * Candidate data extraction.
 *
 * Pulls the creative image, the share text and the landing-page link
 * out of an ad candidate node. Link extraction opens the ad, so it
 * always runs back-navigation recovery afterwards.
 */

package extract

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/feed"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/ocr"
)

const (
	sharePrefix = "Share "
	linkTimeout = 10 * time.Second
	playMarker  = "google play:"
)

// Extractor reads image, text and link off ad candidate nodes.
type Extractor struct {
	nodes   *device.Nodes
	matcher feed.PhraseMatcher
	trav    *feed.Traverser
	logger  *logging.Logger
}

// NewExtractor builds an extractor for one worker.
func NewExtractor(nodes *device.Nodes, matcher feed.PhraseMatcher, trav *feed.Traverser, logger *logging.Logger) *Extractor {
	return &Extractor{nodes: nodes, matcher: matcher, trav: trav, logger: logger.Child("extract")}
}

// Image returns the screenshot of the tallest image view inside the
// candidate node.
func (e *Extractor) Image(node device.Element) (image.Image, bool) {
	imageNodes, err := node.Children(device.SelImageView)
	if err != nil {
		e.logger.Warn("failed to enumerate image views", "error", err)
		return nil, false
	}

	var candidate device.Element
	maxHeight := 0
	for _, imageNode := range imageNodes {
		bounds, err := imageNode.Bounds()
		if err != nil {
			e.logger.Warn("skipping image view", "error", err)
			continue
		}
		if h := bounds.Height(); h > maxHeight {
			candidate = imageNode
			maxHeight = h
		}
	}
	if candidate == nil {
		e.logger.Debug("no image views in candidate")
		return nil, false
	}

	img, err := candidate.Screenshot()
	if err != nil {
		e.logger.Warn("creative screenshot failed", "error", err)
		return nil, false
	}
	return img, true
}

// Text returns the share button's description with the "Share " prefix
// stripped.
func (e *Extractor) Text(node device.Element) (string, bool) {
	share := node.Child(device.SelShare)
	if !share.Exists() {
		e.logger.Debug("share button not present")
		return "", false
	}

	info, err := share.Info()
	if err != nil {
		e.logger.Warn("share button info unavailable", "error", err)
		return "", false
	}
	text := strings.TrimSpace(strings.TrimPrefix(info.Description, sharePrefix))
	if text == "" {
		return "", false
	}
	return text, true
}

// sponsoredChild finds the view-group child carrying the sponsor
// marker. Children that also carry the Google Play store marker are
// app-install ads, not arbitrage candidates, and disqualify the node.
func (e *Extractor) sponsoredChild(node device.Element) device.Element {
	children, err := node.Children(device.SelViewGroup)
	if err != nil {
		e.logger.Warn("failed to enumerate view groups", "error", err)
		return nil
	}

	for _, child := range children {
		img, err := child.Screenshot()
		if err != nil {
			e.logger.Warn("view group screenshot failed", "error", err)
			continue
		}
		match, err := e.matcher.FindMatch(img, feed.SponsorPhrase, ocr.Options{})
		if err != nil {
			e.logger.Warn("view group recognition failed", "error", err)
			continue
		}
		if match == nil {
			continue
		}
		if play, err := e.matcher.FindMatch(img, playMarker, ocr.Options{}); err == nil && play != nil {
			return nil
		}
		return child
	}
	e.logger.Debug("no sponsored view group found")
	return nil
}

// Link opens the ad and reads the landing-page URL off the share-link
// preview: its last whitespace-delimited token. Control always returns
// to the feed via back-navigation recovery.
func (e *Extractor) Link(ctx context.Context, node device.Element) (string, bool) {
	defer e.trav.BackToFeed(ctx)

	sponsored := e.sponsoredChild(node)
	if sponsored == nil {
		return "", false
	}
	if !sponsored.Click(linkTimeout) {
		e.logger.Debug("sponsored element click failed")
		return "", false
	}
	if !e.nodes.ShareLink.Click(linkTimeout) {
		e.logger.Debug("share-link control unavailable")
		return "", false
	}

	preview, err := e.nodes.ContentPreviewText.Text(linkTimeout)
	if err != nil {
		e.logger.Debug("share preview text unavailable", "error", err)
		return "", false
	}

	fields := strings.Fields(preview)
	if len(fields) == 0 {
		return "", false
	}
	return fields[len(fields)-1], true
}

// All returns image, text and link for a candidate in one pass.
func (e *Extractor) All(ctx context.Context, node device.Element) (image.Image, string, string) {
	img, _ := e.Image(node)
	text, _ := e.Text(node)
	link, _ := e.Link(ctx, node)

	e.logger.Debug("candidate data extracted",
		"image", img != nil, "text", text != "", "link", link != "")
	return img, text, link
}
