/**
 * UIAutomator HTTP driver.
 *
 * Talks to the uiautomator agent running on the device (default port
 * 7912, usually reached through an adb port forward). Element queries
 * go over the agent's JSON-RPC endpoint; screenshots and shell commands
 * use its plain HTTP routes.
 */

package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/errors"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/geometry"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

// UiSelector mask bits understood by the agent.
const (
	maskClassName             = 0x10
	maskDescription           = 0x40
	maskDescriptionStartsWith = 0x200
	maskResourceID            = 0x200000
	maskInstance              = 0x800000
)

const (
	rpcPollInterval = 200 * time.Millisecond
	rpcTimeout      = 30 * time.Second
)

// UIAutomatorDevice drives one device through the agent HTTP API.
type UIAutomatorDevice struct {
	serial     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	rpcID      int
}

// DialUIAutomator connects to the agent at addr ("host:port") and
// verifies it responds.
func DialUIAutomator(serial, addr string, logger *logging.Logger) (*UIAutomatorDevice, error) {
	d := &UIAutomatorDevice{
		serial:  serial,
		baseURL: "http://" + addr,
		httpClient: &http.Client{
			Timeout: rpcTimeout,
		},
		logger: logger.Child("uiauto"),
	}
	if _, err := d.Info(); err != nil {
		return nil, errors.NewDeviceFailedError(serial, fmt.Errorf("uiautomator agent not reachable at %s: %w", addr, err))
	}
	return d, nil
}

func (d *UIAutomatorDevice) Serial() string {
	return d.serial
}

// rpcSelector is the wire form of a Selector, including the child
// chain the agent expects for scoped queries.
type rpcSelector struct {
	ClassName             string        `json:"className,omitempty"`
	ResourceID            string        `json:"resourceId,omitempty"`
	Description           string        `json:"description,omitempty"`
	DescriptionStartsWith string        `json:"descriptionStartsWith,omitempty"`
	Instance              int           `json:"instance,omitempty"`
	Mask                  int           `json:"mask"`
	ChildOrSibling        []string      `json:"childOrSibling"`
	ChildOrSiblingSel     []rpcSelector `json:"childOrSiblingSelector"`
}

func toRPCSelector(sel Selector) rpcSelector {
	rs := rpcSelector{
		ClassName:             sel.ClassName,
		ResourceID:            sel.ResourceID,
		Description:           sel.Description,
		DescriptionStartsWith: sel.DescriptionPrefix,
		ChildOrSibling:        []string{},
		ChildOrSiblingSel:     []rpcSelector{},
	}
	if sel.ClassName != "" {
		rs.Mask |= maskClassName
	}
	if sel.ResourceID != "" {
		rs.Mask |= maskResourceID
	}
	if sel.Description != "" {
		rs.Mask |= maskDescription
	}
	if sel.DescriptionPrefix != "" {
		rs.Mask |= maskDescriptionStartsWith
	}
	return rs
}

func (rs rpcSelector) withChild(child rpcSelector) rpcSelector {
	rs.ChildOrSibling = append(append([]string{}, rs.ChildOrSibling...), "child")
	rs.ChildOrSiblingSel = append(append([]rpcSelector{}, rs.ChildOrSiblingSel...), child)
	return rs
}

func (rs rpcSelector) withInstance(i int) rpcSelector {
	if n := len(rs.ChildOrSiblingSel); n > 0 {
		rs.ChildOrSiblingSel = append([]rpcSelector{}, rs.ChildOrSiblingSel...)
		leaf := rs.ChildOrSiblingSel[n-1]
		leaf.Instance = i
		leaf.Mask |= maskInstance
		rs.ChildOrSiblingSel[n-1] = leaf
		return rs
	}
	rs.Instance = i
	rs.Mask |= maskInstance
	return rs
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC method call with bounded retries on
// transport failures.
func (d *UIAutomatorDevice) call(method string, params ...interface{}) (json.RawMessage, error) {
	d.rpcID++
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      d.rpcID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	var result json.RawMessage
	err = retry.Do(
		func() error {
			resp, err := d.httpClient.Post(d.baseURL+"/jsonrpc/0", "application/json", bytes.NewReader(reqBody))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("agent returned status %d: %s", resp.StatusCode, body)
			}

			var rpcResp rpcResponse
			if err := json.Unmarshal(body, &rpcResp); err != nil {
				return fmt.Errorf("malformed rpc response: %w", err)
			}
			if rpcResp.Error != nil {
				// Method-level errors are not transport flakes.
				return retry.Unrecoverable(fmt.Errorf("rpc %s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code))
			}
			result = rpcResp.Result
			return nil
		},
		retry.Attempts(3),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Warn("rpc retry", "method", method, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Screenshot captures the full screen.
func (d *UIAutomatorDevice) Screenshot() (image.Image, error) {
	resp, err := d.httpClient.Get(d.baseURL + "/screenshot/0")
	if err != nil {
		return nil, fmt.Errorf("screenshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screenshot returned status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

func (d *UIAutomatorDevice) Find(sel Selector) Element {
	return &uiElement{dev: d, sel: toRPCSelector(sel)}
}

func (d *UIAutomatorDevice) FindAll(sel Selector) ([]Element, error) {
	base := toRPCSelector(sel)
	raw, err := d.call("count", base)
	if err != nil {
		return nil, err
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return nil, fmt.Errorf("malformed count result: %w", err)
	}

	elements := make([]Element, 0, count)
	for i := 0; i < count; i++ {
		elements = append(elements, &uiElement{dev: d, sel: base.withInstance(i)})
	}
	return elements, nil
}

func (d *UIAutomatorDevice) SwipePoints(points []image.Point, duration time.Duration) error {
	coords := make([]int, 0, len(points)*2)
	for _, p := range points {
		coords = append(coords, p.X, p.Y)
	}
	// The agent expresses swipe speed in injection steps (~5ms each).
	steps := int(duration / (5 * time.Millisecond))
	if steps < 1 {
		steps = 1
	}
	_, err := d.call("swipePoints", coords, steps)
	return err
}

func (d *UIAutomatorDevice) Press(key string) error {
	_, err := d.call("pressKey", key)
	return err
}

func (d *UIAutomatorDevice) AppStart(pkg, activity string) error {
	cmd := fmt.Sprintf("am start -S -n %s/%s", pkg, activity)
	if activity == "" {
		cmd = fmt.Sprintf("monkey -p %s -c android.intent.category.LAUNCHER 1", pkg)
	}
	return d.shell(cmd)
}

func (d *UIAutomatorDevice) AppStop(pkg string) error {
	return d.shell("am force-stop " + pkg)
}

func (d *UIAutomatorDevice) shell(cmd string) error {
	resp, err := d.httpClient.PostForm(d.baseURL+"/shell", url.Values{"command": {cmd}})
	if err != nil {
		return fmt.Errorf("shell request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shell returned status %d", resp.StatusCode)
	}
	return nil
}

type deviceInfoResult struct {
	DisplayWidth       int    `json:"displayWidth"`
	DisplayHeight      int    `json:"displayHeight"`
	CurrentPackageName string `json:"currentPackageName"`
}

func (d *UIAutomatorDevice) Info() (DeviceInfo, error) {
	raw, err := d.call("deviceInfo")
	if err != nil {
		return DeviceInfo{}, err
	}
	var info deviceInfoResult
	if err := json.Unmarshal(raw, &info); err != nil {
		return DeviceInfo{}, fmt.Errorf("malformed deviceInfo result: %w", err)
	}
	return DeviceInfo{
		DisplayWidth:   info.DisplayWidth,
		DisplayHeight:  info.DisplayHeight,
		CurrentPackage: info.CurrentPackageName,
	}, nil
}

// uiElement is a lazy element handle over a wire selector.
type uiElement struct {
	dev *UIAutomatorDevice
	sel rpcSelector
}

type objInfoResult struct {
	Bounds struct {
		Left   int `json:"left"`
		Top    int `json:"top"`
		Right  int `json:"right"`
		Bottom int `json:"bottom"`
	} `json:"bounds"`
	ContentDescription string `json:"contentDescription"`
	Text               string `json:"text"`
	PackageName        string `json:"packageName"`
}

func (e *uiElement) objInfo() (*objInfoResult, error) {
	raw, err := e.dev.call("objInfo", e.sel)
	if err != nil {
		return nil, err
	}
	var info objInfoResult
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("malformed objInfo result: %w", err)
	}
	return &info, nil
}

func (e *uiElement) Exists() bool {
	raw, err := e.dev.call("exist", e.sel)
	if err != nil {
		return false
	}
	var exists bool
	if err := json.Unmarshal(raw, &exists); err != nil {
		return false
	}
	return exists
}

func (e *uiElement) Bounds() (geometry.Rect, error) {
	info, err := e.objInfo()
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.NewRect(info.Bounds.Left, info.Bounds.Top, info.Bounds.Right, info.Bounds.Bottom)
}

func (e *uiElement) Click(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if e.Exists() {
			break
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(rpcPollInterval)
	}
	raw, err := e.dev.call("click", e.sel)
	if err != nil {
		return false
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false
	}
	return ok
}

func (e *uiElement) Info() (ElementInfo, error) {
	info, err := e.objInfo()
	if err != nil {
		return ElementInfo{}, err
	}
	return ElementInfo{
		Description: info.ContentDescription,
		Text:        info.Text,
		Package:     info.PackageName,
	}, nil
}

// Screenshot crops the element's bounds out of a full-screen capture.
func (e *uiElement) Screenshot() (image.Image, error) {
	bounds, err := e.Bounds()
	if err != nil {
		return nil, err
	}
	screen, err := e.dev.Screenshot()
	if err != nil {
		return nil, err
	}
	crop := image.Rect(bounds.Left, bounds.Top, bounds.Right, bounds.Bottom)
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := screen.(subImager); ok {
		return si.SubImage(crop.Intersect(screen.Bounds())), nil
	}
	return nil, fmt.Errorf("screenshot image does not support cropping")
}

func (e *uiElement) Child(sel Selector) Element {
	return &uiElement{dev: e.dev, sel: e.sel.withChild(toRPCSelector(sel))}
}

func (e *uiElement) Children(sel Selector) ([]Element, error) {
	base := e.sel.withChild(toRPCSelector(sel))
	raw, err := e.dev.call("count", base)
	if err != nil {
		return nil, err
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return nil, fmt.Errorf("malformed count result: %w", err)
	}

	elements := make([]Element, 0, count)
	for i := 0; i < count; i++ {
		elements = append(elements, &uiElement{dev: e.dev, sel: base.withInstance(i)})
	}
	return elements, nil
}

func (e *uiElement) Text(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		info, err := e.objInfo()
		if err == nil && info.Text != "" {
			return info.Text, nil
		}
		if time.Now().After(deadline) {
			return "", errors.NewUITimeoutError(e.dev.serial, "text attribute", err)
		}
		time.Sleep(rpcPollInterval)
	}
}
