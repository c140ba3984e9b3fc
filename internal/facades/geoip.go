package facades

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmgolubev/riskgate/internal/logger"
)

// GeoIPHTTPFacade resolves an IP address to a country code through an
// external HTTP lookup service. The lookup is advisory: callers fail open on
// errors from here.
type GeoIPHTTPFacade struct {
	baseURL string
	client  *http.Client
}

// NewGeoIPHTTPFacade creates a new facade for the lookup service at baseURL.
func NewGeoIPHTTPFacade(baseURL string, timeout time.Duration) *GeoIPHTTPFacade {
	return &GeoIPHTTPFacade{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ResolveCountry fetches the ISO 3166-1 alpha-2 country code for an IP.
func (f *GeoIPHTTPFacade) ResolveCountry(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("%s/%s", f.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Log.Errorw("geoip lookup failed", "ip", ip, "error", err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Errorw("geoip lookup returned non-200", "ip", ip, "status", resp.StatusCode)
		return "", fmt.Errorf("geoip lookup: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Log.Errorw("geoip lookup returned malformed body", "ip", ip, "error", err)
		return "", err
	}

	if body.CountryCode == "" {
		return "", fmt.Errorf("geoip lookup: empty country code for %s", ip)
	}

	logger.Log.Infow("geoip lookup",
		"ip", ip,
		"country", body.CountryCode,
	)

	return body.CountryCode, nil
}
