/**
 * Scriptable fakes for the device driver contract.
 *
 * Tests wire FakeElements under selectors and drive the scanner against
 * them; every interaction is recorded for assertions.
 */

package devicetest

import (
	"fmt"
	"image"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/geometry"
)

// FakeDevice implements device.Device against scripted state.
type FakeDevice struct {
	SerialVal   string
	Elements    map[device.Selector]device.Element
	AllElements map[device.Selector][]device.Element

	ScreenshotFunc func() image.Image
	InfoVal        device.DeviceInfo

	// Recorded interactions
	Swipes  [][]image.Point
	Pressed []string
	Started []string
	Stopped []string

	// OnSwipe lets tests mutate scripted state as the feed "scrolls".
	OnSwipe func(points []image.Point)
}

// NewFakeDevice returns a device with an empty element script and a
// 1080x1920 display.
func NewFakeDevice(serial string) *FakeDevice {
	return &FakeDevice{
		SerialVal:   serial,
		Elements:    make(map[device.Selector]device.Element),
		AllElements: make(map[device.Selector][]device.Element),
		InfoVal: device.DeviceInfo{
			DisplayWidth:   1080,
			DisplayHeight:  1920,
			CurrentPackage: device.GooglePackage,
		},
	}
}

func (d *FakeDevice) Serial() string { return d.SerialVal }

func (d *FakeDevice) Screenshot() (image.Image, error) {
	if d.ScreenshotFunc != nil {
		return d.ScreenshotFunc(), nil
	}
	return image.NewRGBA(image.Rect(0, 0, d.InfoVal.DisplayWidth, d.InfoVal.DisplayHeight)), nil
}

func (d *FakeDevice) Find(sel device.Selector) device.Element {
	if el, ok := d.Elements[sel]; ok {
		return el
	}
	return &FakeElement{}
}

func (d *FakeDevice) FindAll(sel device.Selector) ([]device.Element, error) {
	return d.AllElements[sel], nil
}

func (d *FakeDevice) SwipePoints(points []image.Point, _ time.Duration) error {
	d.Swipes = append(d.Swipes, points)
	if d.OnSwipe != nil {
		d.OnSwipe(points)
	}
	return nil
}

func (d *FakeDevice) Press(key string) error {
	d.Pressed = append(d.Pressed, key)
	return nil
}

func (d *FakeDevice) AppStart(pkg, _ string) error {
	d.Started = append(d.Started, pkg)
	return nil
}

func (d *FakeDevice) AppStop(pkg string) error {
	d.Stopped = append(d.Stopped, pkg)
	return nil
}

func (d *FakeDevice) Info() (device.DeviceInfo, error) {
	return d.InfoVal, nil
}

// FakeElement implements device.Element. The zero value is an element
// that does not exist.
type FakeElement struct {
	ExistsVal  bool
	ExistsFunc func() bool

	BoundsVal geometry.Rect
	BoundsErr error

	ClickOK   bool
	ClickFunc func() bool
	Clicks    int

	InfoVal device.ElementInfo
	InfoErr error

	Image     image.Image
	ImageFunc func() image.Image

	TextVal string
	TextErr error

	ChildMap    map[device.Selector]device.Element
	ChildrenMap map[device.Selector][]device.Element
}

func (e *FakeElement) Exists() bool {
	if e.ExistsFunc != nil {
		return e.ExistsFunc()
	}
	return e.ExistsVal
}

func (e *FakeElement) Bounds() (geometry.Rect, error) {
	return e.BoundsVal, e.BoundsErr
}

func (e *FakeElement) Click(_ time.Duration) bool {
	e.Clicks++
	if e.ClickFunc != nil {
		return e.ClickFunc()
	}
	return e.ClickOK
}

func (e *FakeElement) Info() (device.ElementInfo, error) {
	return e.InfoVal, e.InfoErr
}

func (e *FakeElement) Screenshot() (image.Image, error) {
	if e.ImageFunc != nil {
		return e.ImageFunc(), nil
	}
	if e.Image != nil {
		return e.Image, nil
	}
	return nil, fmt.Errorf("no screenshot scripted")
}

func (e *FakeElement) Child(sel device.Selector) device.Element {
	if el, ok := e.ChildMap[sel]; ok {
		return el
	}
	return &FakeElement{}
}

func (e *FakeElement) Children(sel device.Selector) ([]device.Element, error) {
	return e.ChildrenMap[sel], nil
}

func (e *FakeElement) Text(_ time.Duration) (string, error) {
	if e.TextErr != nil {
		return "", e.TextErr
	}
	if e.TextVal == "" {
		return "", fmt.Errorf("element has no text")
	}
	return e.TextVal, nil
}
