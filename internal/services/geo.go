package services

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"clicktrail/internal/ingress"
	"clicktrail/internal/metrics"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Location is coarse visitor geolocation. Coordinates are only known when the
// provider returns them.
type Location struct {
	CountryCode string
	CountryName string
	Region      string
	City        string
	Latitude    *float64
	Longitude   *float64
}

// FallbackLocation is used for private, loopback and unknown addresses and
// whenever a lookup fails.
var FallbackLocation = Location{
	CountryCode: "US",
	CountryName: "United States",
	Region:      "Unknown",
	City:        "Unknown",
}

var ErrGeoUnavailable = errors.New("geolocation unavailable")

// GeoLookup is an IP geolocation provider.
type GeoLookup interface {
	Lookup(ctx context.Context, ip net.IP) (Location, error)
}

type GeoResolver struct {
	lookup  GeoLookup
	timeout time.Duration
	logger  *slog.Logger
}

// NewGeoResolver wraps a provider with the timeout and fallback policy. A nil
// lookup always yields FallbackLocation.
func NewGeoResolver(lookup GeoLookup, timeout time.Duration, logger *slog.Logger) *GeoResolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &GeoResolver{lookup: lookup, timeout: timeout, logger: logger}
}

// Resolve never fails. Platform hints win over the provider; anything the
// provider cannot answer within the timeout degrades to FallbackLocation.
func (g *GeoResolver) Resolve(ctx context.Context, ipStr string, hint *ingress.GeoHint) Location {
	if hint != nil && hint.CountryCode != "" {
		metrics.GeoLookups.WithLabelValues("hint").Inc()
		loc := Location{
			CountryCode: hint.CountryCode,
			CountryName: CountryName(hint.CountryCode),
			Region:      orUnknown(hint.Region),
			City:        orUnknown(hint.City),
		}
		return loc
	}

	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil || !IsPublicIP(ip) || g.lookup == nil {
		metrics.GeoLookups.WithLabelValues("fallback").Inc()
		return FallbackLocation
	}

	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	loc, err := g.lookup.Lookup(lookupCtx, ip)
	if err != nil {
		g.logger.Warn("Geo lookup failed, using fallback", "ip", ipStr, "error", err)
		metrics.GeoLookups.WithLabelValues("fallback").Inc()
		return FallbackLocation
	}
	metrics.GeoLookups.WithLabelValues("provider").Inc()

	if loc.CountryName == "" {
		loc.CountryName = CountryName(loc.CountryCode)
	}
	loc.Region = orUnknown(loc.Region)
	loc.City = orUnknown(loc.City)
	return loc
}

// IsPublicIP is false for loopback, private, link-local and unspecified addresses.
func IsPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast())
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// CountryName maps an ISO 3166-1 alpha-2 code to its English name, falling
// back to the code itself when it is not a known region.
func CountryName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "Unknown"
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}
