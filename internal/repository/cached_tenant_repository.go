package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/pkg/cache"
)

// Cache is the subset of the redis client used to cache tenants
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedTenantRepository is a read-through cache in front of another
// TenantRepository. Cache failures degrade to the underlying repository.
type CachedTenantRepository struct {
	next   TenantRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTenantRepository wraps next with a cache keyed by subdomain
func NewCachedTenantRepository(next TenantRepository, c Cache, ttl time.Duration, logger *zap.Logger) *CachedTenantRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTenantRepository{next: next, cache: c, ttl: ttl, logger: logger}
}

func subdomainKey(subdomain string) string {
	return fmt.Sprintf("tenant:subdomain:%s", subdomain)
}

// GetBySubdomain serves from cache and fills it on a miss
func (r *CachedTenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	key := subdomainKey(subdomain)

	data, err := r.cache.Get(ctx, key)
	if err == nil {
		var tenant model.Tenant
		if err := json.Unmarshal([]byte(data), &tenant); err == nil {
			return &tenant, nil
		}
		r.logger.Warn("Discarding undecodable cached tenant", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("Tenant cache read failed", zap.String("key", key), zap.Error(err))
	}

	tenant, err := r.next.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(tenant); err == nil {
		if err := r.cache.Set(ctx, key, string(encoded), r.ttl); err != nil {
			r.logger.Warn("Tenant cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return tenant, nil
}

// GetByID is not cached
func (r *CachedTenantRepository) GetByID(ctx context.Context, id uint) (*model.Tenant, error) {
	return r.next.GetByID(ctx, id)
}

// Create inserts through the underlying repository
func (r *CachedTenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	return r.next.Create(ctx, tenant)
}

// Update writes through and evicts the cached entry
func (r *CachedTenantRepository) Update(ctx context.Context, tenant *model.Tenant) error {
	var previous string
	if current, err := r.next.GetByID(ctx, tenant.ID); err == nil {
		previous = current.SubdomainValue()
	}

	if err := r.next.Update(ctx, tenant); err != nil {
		return err
	}
	r.evict(ctx, previous, tenant.SubdomainValue())
	return nil
}

// SoftDelete deletes through and evicts the cached entry
func (r *CachedTenantRepository) SoftDelete(ctx context.Context, id uint, actorID *uint) error {
	current, err := r.next.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.next.SoftDelete(ctx, id, actorID); err != nil {
		return err
	}
	r.evict(ctx, current.SubdomainValue())
	return nil
}

// Invalidate drops the cached entry of the tenant with the given id. Writers
// that change tenant rows outside this repository call it after committing.
func (r *CachedTenantRepository) Invalidate(ctx context.Context, id uint) error {
	current, err := r.next.GetByID(ctx, id)
	if err != nil {
		return err
	}
	r.evict(ctx, current.SubdomainValue())
	return nil
}

func (r *CachedTenantRepository) evict(ctx context.Context, subdomains ...string) {
	var keys []string
	for _, sub := range subdomains {
		if sub != "" {
			keys = append(keys, subdomainKey(sub))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("Tenant cache eviction failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
