package hub

import (
	"context"
	"time"

	"github.com/brutella/hc/log"
	"github.com/patrickmn/go-cache"
)

// DefaultTokenTTL is shorter than the rotation period of camera access
// tokens in Home Assistant.
const DefaultTokenTTL = 4 * time.Minute

// Resolver resolves one attribute of one entity and keeps the value for a
// limited time.
type Resolver struct {
	client *Client
	entity string
	key    string
	cache  *cache.Cache
}

// NewResolver returns a resolver for entity's key attribute.
// A ttl <= 0 selects DefaultTokenTTL.
func NewResolver(client *Client, entity, key string, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Resolver{
		client: client,
		entity: entity,
		key:    key,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Entity returns the resolved entity id.
func (r *Resolver) Entity() string {
	return r.entity
}

// Resolve returns the cached value or fetches it from the hub.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if v, found := r.cache.Get(r.cacheKey()); found {
		log.Debug.Printf("Using cached %s of %s", r.key, r.entity)
		return v.(string), nil
	}

	v, err := r.client.Attribute(ctx, r.entity, r.key)
	if err != nil {
		return "", err
	}
	r.cache.Set(r.cacheKey(), v, cache.DefaultExpiration)
	return v, nil
}

// Invalidate drops the cached value so the next Resolve asks the hub again.
func (r *Resolver) Invalidate() {
	r.cache.Delete(r.cacheKey())
}

func (r *Resolver) cacheKey() string {
	return r.entity + "/" + r.key
}
