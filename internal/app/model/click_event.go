package model

import "time"

// Device types assigned by the user-agent classifier.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
	DeviceUnknown = "Unknown Device"
)

// Fallback values for enrichment that could not be resolved.
const (
	UnknownOS       = "Unknown OS"
	UnknownLocation = "Unknown"
)

// ClickEvent is one recorded visit to a short link. Events are append-only:
// once written they are never updated or removed. Under at-least-once queue
// delivery the same visit may be appended twice; counts derived from events
// are approximations, not exact figures.
type ClickEvent struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ShortCode   string    `json:"shortUrl" gorm:"size:64;not null;index"`
	VisitorIP   string    `json:"visitorIp" gorm:"size:64;not null"`
	UserAgent   string    `json:"userAgent" gorm:"type:text;not null"`
	Referrer    string    `json:"referrer,omitempty" gorm:"type:text"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`
	Geolocation string    `json:"geolocation" gorm:"size:128"`
	OSType      string    `json:"osType" gorm:"size:64"`
	DeviceType  string    `json:"deviceType" gorm:"size:32"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-writer"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
	ClickMaxDeliver     = 5
)
