// Package ingress normalises the headers that reach the resolver through the
// various proxy layers into a single ClientContext.
package ingress

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// UnknownIP is used when no header and no socket address carry a client IP.
const UnknownIP = "unknown"

// ClientContext is built once per request and never persisted.
type ClientContext struct {
	IP             string
	UserAgent      string
	Referer        string
	AcceptLanguage string
	Method         string
	GeoHint        *GeoHint
}

// GeoHint carries location data a hosting platform already attached to the request.
type GeoHint struct {
	CountryCode string
	Region      string
	City        string
}

// Profile lists, in precedence order, the headers a deployment target uses to
// forward the client IP, plus the headers it uses for geolocation.
// GeoJSONHeader names a single base64 encoded JSON header (Netlify's
// X-Nf-Geo) and takes precedence over the per-field headers.
type Profile struct {
	IPHeaders     []string
	CountryHeader string
	RegionHeader  string
	CityHeader    string
	GeoJSONHeader string
}

var Profiles = map[string]Profile{
	"default": {
		IPHeaders:     []string{"X-Real-IP", "X-Forwarded-For", "X-Nf-Client-Connection-Ip"},
		CountryHeader: "X-Country",
	},
	"netlify": {
		IPHeaders:     []string{"X-Nf-Client-Connection-Ip", "X-Real-IP", "X-Forwarded-For"},
		GeoJSONHeader: "X-Nf-Geo",
	},
	"cloudflare": {
		IPHeaders:     []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"},
		CountryHeader: "CF-IPCountry",
	},
	"vercel": {
		IPHeaders:     []string{"X-Real-IP", "X-Vercel-Forwarded-For", "X-Forwarded-For"},
		CountryHeader: "X-Vercel-IP-Country",
		RegionHeader:  "X-Vercel-IP-Country-Region",
		CityHeader:    "X-Vercel-IP-City",
	},
}

type Adapter struct {
	profile Profile
}

func NewAdapter(profile Profile) *Adapter {
	return &Adapter{profile: profile}
}

// ForProfile looks up a named profile. A non-empty override replaces the
// profile's IP header list.
func ForProfile(name, override string) (*Adapter, error) {
	if name == "" {
		name = "default"
	}
	profile, ok := Profiles[name]
	if !ok {
		names := make([]string, 0, len(Profiles))
		for n := range Profiles {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown ingress profile %q (want one of %s)", name, strings.Join(names, ", "))
	}
	if headers := splitList(override); len(headers) > 0 {
		profile.IPHeaders = headers
	}
	return NewAdapter(profile), nil
}

func (a *Adapter) Profile() Profile {
	return a.profile
}

func (a *Adapter) FromRequest(r *http.Request) ClientContext {
	return ClientContext{
		IP:             a.ResolveIP(r.Header, r.RemoteAddr),
		UserAgent:      r.UserAgent(),
		Referer:        r.Referer(),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Method:         r.Method,
		GeoHint:        a.geoHint(r.Header),
	}
}

// ResolveIP walks the configured headers in order; the first non-empty value
// wins. Forwarded-for style headers contribute their first entry.
func (a *Adapter) ResolveIP(h http.Header, remoteAddr string) string {
	for _, name := range a.profile.IPHeaders {
		v := strings.TrimSpace(h.Get(name))
		if v == "" {
			continue
		}
		if strings.HasSuffix(strings.ToLower(name), "forwarded-for") {
			v = strings.TrimSpace(strings.Split(v, ",")[0])
			if v == "" {
				continue
			}
		}
		return v
	}
	if ip := hostOnly(remoteAddr); ip != "" {
		return ip
	}
	return UnknownIP
}

func (a *Adapter) geoHint(h http.Header) *GeoHint {
	if a.profile.GeoJSONHeader != "" {
		if hint := decodeGeoJSON(h.Get(a.profile.GeoJSONHeader)); hint != nil {
			return hint
		}
	}
	if a.profile.CountryHeader == "" {
		return nil
	}
	country, ok := countryCode(h.Get(a.profile.CountryHeader))
	if !ok {
		return nil
	}
	hint := &GeoHint{CountryCode: country}
	if a.profile.RegionHeader != "" {
		hint.Region = h.Get(a.profile.RegionHeader)
	}
	if a.profile.CityHeader != "" {
		hint.City = h.Get(a.profile.CityHeader)
	}
	return hint
}

// decodeGeoJSON reads {"country":{"code":..},"subdivision":{"code":..},"city":..}
// from a base64 header value.
func decodeGeoJSON(v string) *GeoHint {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(v); err != nil {
			return nil
		}
	}
	if !gjson.ValidBytes(raw) {
		return nil
	}
	res := gjson.ParseBytes(raw)
	country, ok := countryCode(res.Get("country.code").String())
	if !ok {
		return nil
	}
	return &GeoHint{
		CountryCode: country,
		Region:      res.Get("subdivision.code").String(),
		City:        res.Get("city").String(),
	}
}

func countryCode(v string) (string, bool) {
	country := strings.ToUpper(strings.TrimSpace(v))
	// Cloudflare uses XX for unknown and T1 for Tor
	if len(country) != 2 || country == "XX" || country == "T1" {
		return "", false
	}
	return country, true
}

func hostOnly(remoteAddr string) string {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
