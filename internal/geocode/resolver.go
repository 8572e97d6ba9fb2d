package geocode

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/bstardust/photosync/internal/logger"
)

// DefaultInterval is the minimum spacing between two outbound requests.
// Public Nominatim allows one request per second.
const DefaultInterval = 1100 * time.Millisecond

type Options struct {
	Interval    time.Duration
	HomeCountry string
}

// Coordinate is one item of a batch lookup.
type Coordinate struct {
	ID  string
	Lat float64
	Lon float64
}

// Resolver turns coordinates into place names. Lookups are cached per grid
// cell and outbound requests are throttled; cache hits never wait.
type Resolver struct {
	client      Client
	cache       *Cache
	limiter     *rate.Limiter
	group       singleflight.Group
	homeCountry string
}

func NewResolver(client Client, cache *Cache, opts Options) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.HomeCountry == "" {
		opts.HomeCountry = DefaultHomeCountry
	}
	return &Resolver{
		client:      client,
		cache:       cache,
		limiter:     rate.NewLimiter(rate.Every(opts.Interval), 1),
		homeCountry: opts.HomeCountry,
	}
}

// Resolve returns the place name for the coordinate. The boolean is false
// when no name is available, either because the provider had none (cached)
// or because the lookup failed (not cached, retried on the next call).
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (string, bool) {
	key := KeyFor(lat, lon)
	if e, ok := r.cache.Get(key); ok {
		return e.Name, e.Found
	}

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		if e, ok := r.cache.Get(key); ok {
			return e, nil
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		addr, err := r.client.Reverse(ctx, lat, lon)
		if err != nil {
			return nil, err
		}

		var e Entry
		if addr != nil {
			e.Name = PlaceName(*addr, r.homeCountry)
			e.Found = e.Name != ""
		}
		r.cache.Put(key, e)
		logger.L().Debug().Str("cell", key.String()).Str("place", e.Name).Msg("resolved location")
		return e, nil
	})
	if err != nil {
		logger.L().Warn().Err(err).Str("cell", key.String()).Msg("reverse geocoding failed")
		return "", false
	}

	e := v.(Entry)
	return e.Name, e.Found
}

// ResolveBatch resolves coordinates one after another. Every id is present
// in the result; "" means no place name.
func (r *Resolver) ResolveBatch(ctx context.Context, coords []Coordinate) map[string]string {
	out := make(map[string]string, len(coords))
	for _, c := range coords {
		name, _ := r.Resolve(ctx, c.Lat, c.Lon)
		out[c.ID] = name
	}
	return out
}
