package services

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// HTTPGeoLookup queries an ip-api.com compatible JSON endpoint. URLTemplate
// must contain a single %s for the address.
type HTTPGeoLookup struct {
	URLTemplate string
	Client      *http.Client
}

func NewHTTPGeoLookup(urlTemplate string) *HTTPGeoLookup {
	return &HTTPGeoLookup{URLTemplate: urlTemplate, Client: http.DefaultClient}
}

func (h *HTTPGeoLookup) Lookup(ctx context.Context, ip net.IP) (Location, error) {
	url := fmt.Sprintf(h.URLTemplate, ip.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geo api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Location{}, err
	}
	if !gjson.ValidBytes(body) {
		return Location{}, fmt.Errorf("geo api returned malformed body")
	}

	res := gjson.ParseBytes(body)
	if status := res.Get("status"); status.Exists() && status.String() != "success" {
		return Location{}, fmt.Errorf("geo api lookup failed: %s", res.Get("message").String())
	}

	code := strings.ToUpper(res.Get("countryCode").String())
	if code == "" {
		return Location{}, ErrGeoUnavailable
	}

	loc := Location{
		CountryCode: code,
		CountryName: res.Get("country").String(),
		Region:      res.Get("regionName").String(),
		City:        res.Get("city").String(),
	}
	if lat := res.Get("lat"); lat.Exists() {
		v := lat.Float()
		loc.Latitude = &v
	}
	if lon := res.Get("lon"); lon.Exists() {
		v := lon.Float()
		loc.Longitude = &v
	}
	return loc, nil
}
