/**
 * Account rotation.
 *
 * Reads the active account off the selected-account disc and performs
 * the managed switch through the account-management panel. A switch
 * whose target email is not listed is abandoned, not retried; the main
 * loop re-detects the drift on its next comparison.
 */

package account

import (
	"context"
	"strings"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/feed"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

const (
	clickTimeout = 15 * time.Second
	settleDelay  = 500 * time.Millisecond
)

// Switcher manages the device's active account.
type Switcher struct {
	dev    device.Device
	nodes  *device.Nodes
	trav   *feed.Traverser
	logger *logging.Logger
}

// NewSwitcher builds a switcher sharing the worker's traverser for
// swipes and back-navigation recovery.
func NewSwitcher(dev device.Device, nodes *device.Nodes, trav *feed.Traverser, logger *logging.Logger) *Switcher {
	return &Switcher{dev: dev, nodes: nodes, trav: trav, logger: logger.Child("account")}
}

// CurrentUser returns the email of the active account, parsed out of
// the selected-account disc's accessibility description. The last
// whitespace-delimited token containing "@" wins.
func (s *Switcher) CurrentUser() (string, bool) {
	if !s.nodes.SelectedAccount.Exists() {
		s.logger.Debug("selected-account disc not visible")
		return "", false
	}

	info, err := s.nodes.SelectedAccount.Info()
	if err != nil {
		s.logger.Debug("selected-account info unavailable", "error", err)
		return "", false
	}
	if info.Description == "" {
		s.logger.Debug("selected-account description empty")
		return "", false
	}

	email := ""
	for _, token := range strings.Fields(info.Description) {
		if strings.Contains(token, "@") {
			email = token
		}
	}
	if email == "" {
		s.logger.Debug("no email token in account description")
		return "", false
	}

	s.logger.Debug("current user resolved", "email", email)
	return email, true
}

// ChangeUser switches the device to the account with the given email
// and returns control to the feed.
func (s *Switcher) ChangeUser(ctx context.Context, email string) {
	s.logger.Info("switching account", "target", email)

	// Open the account-switch surface.
	if !s.nodes.SelectedAccount.Click(clickTimeout) {
		s.logger.Warn("selected-account disc click failed")
	}

	// Navigate to the account list; the label is the fallback entry
	// point when the management panel is collapsed.
	if !s.nodes.AccountManagement.Exists() {
		s.nodes.AccountsLabel.Click(clickTimeout)
	}
	s.nodes.AccountManagement.Click(clickTimeout)

	// Bring the account list into the scroll container's range.
	if accounts, err := s.nodes.Accounts.Bounds(); err == nil {
		if scroll, err := s.nodes.AccountsScroll.Bounds(); err == nil {
			if err := s.trav.Swipe(accounts.Top, scroll.Top); err != nil {
				s.logger.Warn("account list scroll failed", "error", err)
			}
		}
	}

	rows, err := s.dev.FindAll(device.SelAccountsInfo)
	if err != nil {
		s.logger.Warn("failed to enumerate account rows", "error", err)
	}

	found := false
	for _, row := range rows {
		info, err := row.Info()
		if err != nil {
			continue
		}
		if info.Text == email {
			row.Click(clickTimeout)
			found = true
			s.logger.Info("account selected", "email", email)
			time.Sleep(settleDelay)
			break
		}
	}
	if !found {
		s.logger.Warn("account not listed, switch abandoned", "email", email)
	}

	s.trav.BackToFeed(ctx)
	s.logger.Info("account switch finished", "email", email, "found", found)
}
