package account

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device/devicetest"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/feed"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/geometry"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/ocr"
)

var testLogger = logging.NewLoggerWithLevel("account-test", logging.LevelError)

type noMatch struct{}

func (noMatch) FindMatch(image.Image, string, ocr.Options) (*ocr.Match, error) {
	return nil, nil
}

func newTestSwitcher(t *testing.T, dev *devicetest.FakeDevice) (*Switcher, *device.Nodes) {
	t.Helper()
	nodes := device.NewNodes(dev)
	trav, err := feed.NewTraverser(dev, nodes, noMatch{}, testLogger, time.Millisecond, 3)
	if err != nil {
		t.Fatalf("traverser construction failed: %v", err)
	}
	return NewSwitcher(dev, nodes, trav, testLogger), nodes
}

func discDevice(description string) *devicetest.FakeDevice {
	dev := devicetest.NewFakeDevice("emulator-5554")
	dev.Elements[device.SelGoogleApp] = &devicetest.FakeElement{
		ExistsVal: true,
		BoundsVal: geometry.Rect{Left: 0, Top: 0, Right: 1080, Bottom: 1920},
		ChildMap: map[device.Selector]device.Element{
			device.SelTopBar: &devicetest.FakeElement{
				ExistsVal: true,
				ChildMap: map[device.Selector]device.Element{
					device.SelSelectedAccount: &devicetest.FakeElement{
						ExistsVal: true,
						ClickOK:   true,
						InfoVal:   device.ElementInfo{Description: description},
					},
				},
			},
		},
	}
	return dev
}

func TestCurrentUser(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
		wantOK      bool
	}{
		{
			name:        "plain description",
			description: "Account and settings for scan.us@gmail.com",
			want:        "scan.us@gmail.com",
			wantOK:      true,
		},
		{
			name:        "last email token wins",
			description: "Signed in as old@gmail.com switched to new@gmail.com",
			want:        "new@gmail.com",
			wantOK:      true,
		},
		{
			name:        "no email token",
			description: "Account and settings",
			wantOK:      false,
		},
		{
			name:        "empty description",
			description: "",
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSwitcher(t, discDevice(tt.description))
			got, ok := s.CurrentUser()
			if ok != tt.wantOK {
				t.Fatalf("CurrentUser ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("CurrentUser = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCurrentUserWithoutDisc(t *testing.T) {
	dev := devicetest.NewFakeDevice("emulator-5554")
	dev.Elements[device.SelGoogleApp] = &devicetest.FakeElement{
		ExistsVal: true,
		BoundsVal: geometry.Rect{Left: 0, Top: 0, Right: 1080, Bottom: 1920},
	}
	s, _ := newTestSwitcher(t, dev)
	if _, ok := s.CurrentUser(); ok {
		t.Error("CurrentUser reported a user without the account disc")
	}
}

func TestChangeUserSelectsListedAccount(t *testing.T) {
	dev := discDevice("Account and settings for personal@gmail.com")
	dev.Elements[device.SelAccountManagement] = &devicetest.FakeElement{ExistsVal: true, ClickOK: true}
	dev.Elements[device.SelAccounts] = &devicetest.FakeElement{
		ExistsVal: true,
		BoundsVal: geometry.Rect{Left: 0, Top: 1200, Right: 1080, Bottom: 1500},
	}
	dev.Elements[device.SelAccountsScroll] = &devicetest.FakeElement{
		ExistsVal: true,
		BoundsVal: geometry.Rect{Left: 0, Top: 400, Right: 1080, Bottom: 1600},
	}

	other := &devicetest.FakeElement{
		ExistsVal: true,
		ClickOK:   true,
		InfoVal:   device.ElementInfo{Text: "personal@gmail.com"},
	}
	target := &devicetest.FakeElement{
		ExistsVal: true,
		ClickOK:   true,
		InfoVal:   device.ElementInfo{Text: "scan.us@gmail.com"},
	}
	dev.AllElements[device.SelAccountsInfo] = []device.Element{other, target}

	s, _ := newTestSwitcher(t, dev)
	s.ChangeUser(context.Background(), "scan.us@gmail.com")

	if target.Clicks != 1 {
		t.Errorf("target row clicks = %d, want 1", target.Clicks)
	}
	if other.Clicks != 0 {
		t.Errorf("non-target row was clicked %d times", other.Clicks)
	}
	if len(dev.Swipes) == 0 {
		t.Error("account list was not scrolled into range")
	}
}

func TestChangeUserAbandonsUnlistedAccount(t *testing.T) {
	dev := discDevice("Account and settings for personal@gmail.com")
	dev.Elements[device.SelAccountManagement] = &devicetest.FakeElement{ExistsVal: true, ClickOK: true}

	listed := &devicetest.FakeElement{
		ExistsVal: true,
		ClickOK:   true,
		InfoVal:   device.ElementInfo{Text: "personal@gmail.com"},
	}
	dev.AllElements[device.SelAccountsInfo] = []device.Element{listed}

	s, _ := newTestSwitcher(t, dev)
	// Must not error or hang; the main loop re-detects the drift later.
	s.ChangeUser(context.Background(), "missing@gmail.com")

	if listed.Clicks != 0 {
		t.Errorf("wrong account clicked %d times", listed.Clicks)
	}
}

func TestChangeUserFallsBackToAccountsLabel(t *testing.T) {
	dev := discDevice("Account and settings for personal@gmail.com")
	managementVisible := false
	dev.Elements[device.SelAccountManagement] = &devicetest.FakeElement{
		ExistsFunc: func() bool { return managementVisible },
		ClickOK:    true,
	}
	label := &devicetest.FakeElement{
		ExistsVal: true,
		ClickFunc: func() bool {
			managementVisible = true
			return true
		},
	}
	dev.Elements[device.SelAccountsLabel] = label

	s, _ := newTestSwitcher(t, dev)
	s.ChangeUser(context.Background(), "scan.us@gmail.com")

	if label.Clicks != 1 {
		t.Errorf("collapsed panel label clicks = %d, want 1", label.Clicks)
	}
}
