package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/config"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/pkg/metrics"
)

// Geocoder resolves free-text addresses to coordinates and back.
type Geocoder interface {
	AddressToCoordinates(ctx context.Context, address string) (geo.Coordinates, error)
	CoordinatesToAddress(ctx context.Context, lat, lng float64) (string, error)
}

// Client calls the Google geocoding API when an API key is configured and
// falls back to OSM Nominatim otherwise. Nominatim's usage policy requires an
// identifying User-Agent, which is always sent.
type Client struct {
	cfg  config.GeocodingConfig
	http *http.Client

	// base URLs are fields so tests can point the client at a local server
	googleURL string
}

func NewClient(cfg config.GeocodingConfig) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: 10 * time.Second},
		googleURL: "https://maps.googleapis.com",
	}
}

// SetGoogleURL overrides the Google endpoint (tests only).
func (c *Client) SetGoogleURL(u string) { c.googleURL = u }

func (c *Client) useGoogle() bool { return c.cfg.GoogleAPIKey != "" }

func (c *Client) AddressToCoordinates(ctx context.Context, address string) (geo.Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return geo.Coordinates{}, apperr.Geocoding(nil, "address is empty")
	}
	if c.useGoogle() {
		return c.googleForward(ctx, address)
	}
	return c.nominatimForward(ctx, address)
}

func (c *Client) CoordinatesToAddress(ctx context.Context, lat, lng float64) (string, error) {
	if c.useGoogle() {
		return c.googleReverse(ctx, lat, lng)
	}
	return c.nominatimReverse(ctx, lat, lng)
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *Client) googleQuery(ctx context.Context, params url.Values) (*googleResponse, error) {
	params.Set("key", c.cfg.GoogleAPIKey)
	u := c.googleURL + "/maps/api/geocode/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) googleForward(ctx context.Context, address string) (geo.Coordinates, error) {
	out, err := c.googleQuery(ctx, url.Values{"address": {address}})
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("google", "error").Inc()
		return geo.Coordinates{}, apperr.Geocoding(err, "google geocoding request")
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		metrics.GeocodeLookups.WithLabelValues("google", "no_result").Inc()
		return geo.Coordinates{}, apperr.Geocoding(nil, "geocoding failed: %s", out.Status)
	}
	metrics.GeocodeLookups.WithLabelValues("google", "ok").Inc()
	loc := out.Results[0].Geometry.Location
	return geo.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (c *Client) googleReverse(ctx context.Context, lat, lng float64) (string, error) {
	out, err := c.googleQuery(ctx, url.Values{"latlng": {fmt.Sprintf("%f,%f", lat, lng)}})
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("google", "error").Inc()
		return "", apperr.Geocoding(err, "google reverse geocoding request")
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		metrics.GeocodeLookups.WithLabelValues("google", "no_result").Inc()
		return "", apperr.Geocoding(nil, "reverse geocoding failed: %s", out.Status)
	}
	metrics.GeocodeLookups.WithLabelValues("google", "ok").Inc()
	return out.Results[0].FormattedAddress, nil
}

func (c *Client) nominatimGet(ctx context.Context, path string, params url.Values, v interface{}) error {
	u := strings.TrimRight(c.cfg.NominatimURL, "/") + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	// required by the Nominatim usage policy
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) nominatimForward(ctx context.Context, address string) (geo.Coordinates, error) {
	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	params := url.Values{"q": {address}, "format": {"json"}, "limit": {"1"}}
	if err := c.nominatimGet(ctx, "/search", params, &out); err != nil {
		metrics.GeocodeLookups.WithLabelValues("nominatim", "error").Inc()
		return geo.Coordinates{}, apperr.Geocoding(err, "nominatim geocoding request")
	}
	if len(out) == 0 {
		metrics.GeocodeLookups.WithLabelValues("nominatim", "no_result").Inc()
		return geo.Coordinates{}, apperr.Geocoding(nil, "address not found")
	}
	lat, err1 := strconv.ParseFloat(out[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(out[0].Lon, 64)
	if err1 != nil || err2 != nil {
		metrics.GeocodeLookups.WithLabelValues("nominatim", "error").Inc()
		return geo.Coordinates{}, apperr.Geocoding(nil, "nominatim returned malformed coordinates")
	}
	metrics.GeocodeLookups.WithLabelValues("nominatim", "ok").Inc()
	return geo.Coordinates{Lat: lat, Lng: lng}, nil
}

func (c *Client) nominatimReverse(ctx context.Context, lat, lng float64) (string, error) {
	var out struct {
		DisplayName string `json:"display_name"`
	}
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lng, 'f', -1, 64)},
		"format": {"json"},
	}
	if err := c.nominatimGet(ctx, "/reverse", params, &out); err != nil {
		metrics.GeocodeLookups.WithLabelValues("nominatim", "error").Inc()
		return "", apperr.Geocoding(err, "nominatim reverse geocoding request")
	}
	if out.DisplayName == "" {
		metrics.GeocodeLookups.WithLabelValues("nominatim", "no_result").Inc()
		return "", apperr.Geocoding(nil, "address not found for coordinates")
	}
	metrics.GeocodeLookups.WithLabelValues("nominatim", "ok").Inc()
	return out.DisplayName, nil
}
