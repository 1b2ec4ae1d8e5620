/**
 * Device driver contract.
 *
 * The scanner core only ever talks to these interfaces. The production
 * implementation speaks the uiautomator agent HTTP API (uiauto.go);
 * tests use the scriptable fake in the devicetest package.
 */

package device

import (
	"image"
	"time"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/geometry"
)

// Selector describes a UI element query. Zero-valued fields are not
// part of the query.
type Selector struct {
	ClassName         string
	ResourceID        string
	Description       string
	DescriptionPrefix string
}

// DeviceInfo is the subset of device state the scanner reads.
type DeviceInfo struct {
	DisplayWidth   int
	DisplayHeight  int
	CurrentPackage string
}

// ElementInfo is the attribute map of a resolved element.
type ElementInfo struct {
	Description string
	Text        string
	Package     string
}

// Device is a handle to one managed Android device. Implementations are
// not safe for concurrent use; each worker owns exactly one Device.
type Device interface {
	Serial() string
	Screenshot() (image.Image, error)
	// Find returns a lazy handle; resolution happens on first use.
	Find(sel Selector) Element
	// FindAll resolves every element matching sel, in layout order.
	FindAll(sel Selector) ([]Element, error)
	SwipePoints(points []image.Point, duration time.Duration) error
	Press(key string) error
	AppStart(pkg, activity string) error
	AppStop(pkg string) error
	Info() (DeviceInfo, error)
}

// Element is a lazily-resolved UI element handle.
type Element interface {
	Exists() bool
	Bounds() (geometry.Rect, error)
	// Click waits up to timeout for the element and taps it, reporting
	// whether the tap happened.
	Click(timeout time.Duration) bool
	Info() (ElementInfo, error)
	Screenshot() (image.Image, error)
	Child(sel Selector) Element
	Children(sel Selector) ([]Element, error)
	// Text waits up to timeout for the element to carry a non-empty
	// text attribute.
	Text(timeout time.Duration) (string, error)
}
