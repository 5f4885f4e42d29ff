// Package useragent classifies raw User-Agent strings into the OS and
// device buckets used by the analytics breakdowns. Classification is pure
// string matching with no I/O.
package useragent

import (
	"strings"

	"github.com/linklytics/linklytics/internal/app/model"
)

// OS names the operating system family of the user agent, or
// model.UnknownOS when nothing matches.
func OS(raw string) string {
	ua := strings.ToLower(raw)

	switch {
	case strings.Contains(ua, "windows phone"):
		return "Windows Phone"
	case strings.Contains(ua, "windows"):
		return "Windows"
	// Android user agents also contain "linux", so check Android first.
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		return "iOS"
	case strings.Contains(ua, "mac os x"), strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "cros"):
		return "ChromeOS"
	case strings.Contains(ua, "linux"), strings.Contains(ua, "x11"):
		return "Linux"
	default:
		return model.UnknownOS
	}
}

// Device buckets the user agent as Mobile, Tablet or Desktop, falling back
// to model.DeviceUnknown.
func Device(raw string) string {
	ua := strings.ToLower(raw)

	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"),
		// Android tablets carry "android" without the "mobile" token.
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return model.DeviceTablet
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "iphone"),
		strings.Contains(ua, "ipod"), strings.Contains(ua, "android"),
		strings.Contains(ua, "windows phone"):
		return model.DeviceMobile
	case strings.Contains(ua, "windows"), strings.Contains(ua, "macintosh"),
		strings.Contains(ua, "mac os x"), strings.Contains(ua, "linux"),
		strings.Contains(ua, "cros"), strings.Contains(ua, "x11"):
		return model.DeviceDesktop
	default:
		return model.DeviceUnknown
	}
}
