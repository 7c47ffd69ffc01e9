package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CachedGeocoder decorates a Geocoder with a Redis result cache. Entries are
// stored as JSON under "geocode:addr:<normalized address>" and
// "geocode:rev:<lat,lng>" with a TTL. Cache failures fall through to the
// underlying geocoder.
type CachedGeocoder struct {
	inner  Geocoder
	client *redis.Client
	ttl    time.Duration
}

func NewCachedGeocoder(inner Geocoder, client *redis.Client, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGeocoder{inner: inner, client: client, ttl: ttl}
}

func addrKey(address string) string {
	return "geocode:addr:" + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

func revKey(lat, lng float64) string {
	// 4 decimal places ~ 11m, close enough for address reuse
	return fmt.Sprintf("geocode:rev:%.4f,%.4f", lat, lng)
}

func (c *CachedGeocoder) AddressToCoordinates(ctx context.Context, address string) (geo.Coordinates, error) {
	key := addrKey(address)
	if b, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var coords geo.Coordinates
		if err := json.Unmarshal(b, &coords); err == nil {
			return coords, nil
		}
	} else if err != redis.Nil {
		logger.Warnf("geocode cache read failed: %v", err)
	}

	coords, err := c.inner.AddressToCoordinates(ctx, address)
	if err != nil {
		return geo.Coordinates{}, err
	}
	if b, err := json.Marshal(coords); err == nil {
		if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
			logger.Warnf("geocode cache write failed: %v", err)
		}
	}
	return coords, nil
}

func (c *CachedGeocoder) CoordinatesToAddress(ctx context.Context, lat, lng float64) (string, error) {
	key := revKey(lat, lng)
	if s, err := c.client.Get(ctx, key).Result(); err == nil && s != "" {
		return s, nil
	} else if err != nil && err != redis.Nil {
		logger.Warnf("geocode cache read failed: %v", err)
	}

	addr, err := c.inner.CoordinatesToAddress(ctx, lat, lng)
	if err != nil {
		return "", err
	}
	if err := c.client.Set(ctx, key, addr, c.ttl).Err(); err != nil {
		logger.Warnf("geocode cache write failed: %v", err)
	}
	return addr, nil
}
