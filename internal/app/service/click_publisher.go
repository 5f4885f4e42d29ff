package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/useragent"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// geoTimeout bounds the geolocation lookup. Geolocation is best-effort
// enrichment and must never hold up click ingestion.
const geoTimeout = 2 * time.Second

// GeoResolver resolves an IP address to a best-effort city-level location.
type GeoResolver interface {
	Locate(ctx context.Context, ip string) (string, error)
}

// jetStreamPublisher is the slice of nats.JetStreamContext the publisher
// needs; narrowed so tests can fake it.
type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// ClickPublisher enriches raw visits and enqueues them as click events.
// Publishing happens off the redirect's critical path: the caller fires it
// from a goroutine and the durable write is left to the consumer.
type ClickPublisher struct {
	js     jetStreamPublisher
	geo    GeoResolver
	logger *zap.Logger
}

// NewClickPublisher creates a click event publisher. geo may be nil, in
// which case every event carries the unknown-location fallback.
func NewClickPublisher(js jetStreamPublisher, geo GeoResolver, logger *zap.Logger) *ClickPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickPublisher{js: js, geo: geo, logger: logger}
}

// Publish builds an enriched ClickEvent for the visit and places it on the
// click stream.
func (p *ClickPublisher) Publish(ctx context.Context, code, ip, userAgent, referrer string) error {
	event := model.ClickEvent{
		ID:          uuid.New().String(),
		ShortCode:   code,
		VisitorIP:   ip,
		UserAgent:   userAgent,
		Referrer:    referrer,
		Timestamp:   time.Now().UTC(),
		Geolocation: p.locate(ctx, ip),
		OSType:      useragent.OS(userAgent),
		DeviceType:  useragent.Device(userAgent),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal click event: %w", err)
	}

	if _, err := p.js.Publish(model.ClickStreamSubject, data); err != nil {
		return fmt.Errorf("publish click event: %w", err)
	}

	infraprom.ClicksPublished.Inc()
	return nil
}

func (p *ClickPublisher) locate(ctx context.Context, ip string) string {
	if p.geo == nil {
		return model.UnknownLocation
	}

	lookupCtx, cancel := context.WithTimeout(ctx, geoTimeout)
	defer cancel()

	location, err := p.geo.Locate(lookupCtx, ip)
	if err != nil || location == "" {
		p.logger.Debug("geolocation lookup failed",
			zap.String("ip", ip),
			zap.Error(err))
		return model.UnknownLocation
	}
	return location
}
