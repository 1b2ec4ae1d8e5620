package device

import (
	"strings"
	"time"
)

// Google app identity on the scanned devices.
const (
	GooglePackage  = "com.google.android.googlequicksearchbox"
	GoogleActivity = "com.google.android.googlequicksearchbox.SearchActivity"
)

// GoogleApp controls the Google app's lifecycle on one device.
type GoogleApp struct {
	dev   Device
	pause time.Duration
}

// NewGoogleApp wraps app lifecycle control for the device. pause is the
// settle delay between close attempts.
func NewGoogleApp(dev Device, pause time.Duration) *GoogleApp {
	return &GoogleApp{dev: dev, pause: pause}
}

// Start launches (or relaunches) the app and waits for it to settle.
func (a *GoogleApp) Start() error {
	if err := a.dev.AppStart(GooglePackage, GoogleActivity); err != nil {
		return err
	}
	time.Sleep(a.pause)
	return nil
}

// Close stops the app. It avoids issuing a stop while the launcher is
// in the foreground, where a force-stop races with the home transition.
func (a *GoogleApp) Close() error {
	const attempts = 6
	for i := 0; i < attempts; i++ {
		info, err := a.dev.Info()
		if err != nil {
			return err
		}
		if !strings.Contains(info.CurrentPackage, "launcher") {
			return a.dev.AppStop(GooglePackage)
		}
		time.Sleep(a.pause)
	}
	return nil
}
