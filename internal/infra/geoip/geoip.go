// Package geoip resolves visitor IPs to a city-level location using a local
// GeoLite2 database. Lookups are optional enrichment: every failure mode
// returns an error the caller substitutes with "Unknown".
package geoip

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

var (
	// ErrDisabled is returned when no database is configured.
	ErrDisabled = errors.New("geoip: lookups disabled")
	errBadIP    = errors.New("geoip: unparseable ip")
)

// Resolver answers city-level lookups against a GeoLite2 City database.
type Resolver struct {
	db     *geoip2.Reader
	logger *zap.Logger
}

// Open loads the database at path. An empty path disables lookups: Open
// returns a resolver whose Locate always fails with ErrDisabled, so the
// ingestion path degrades to "Unknown" without special-casing.
func Open(path string, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		logger.Info("geolocation disabled, no database configured")
		return &Resolver{logger: logger}, nil
	}

	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}

	logger.Info("geolocation database loaded", zap.String("path", path))
	return &Resolver{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (r *Resolver) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Locate returns "City, Country" for the IP, or the country alone when the
// database has no city record.
func (r *Resolver) Locate(ctx context.Context, ip string) (string, error) {
	if r.db == nil {
		return "", ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", errBadIP
	}

	record, err := r.db.City(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup: %w", err)
	}

	city := record.City.Names["en"]
	country := record.Country.Names["en"]
	switch {
	case city != "" && country != "":
		return city + ", " + country, nil
	case country != "":
		return country, nil
	default:
		return "", errors.New("geoip: no location record")
	}
}
