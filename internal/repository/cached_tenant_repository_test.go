package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/pkg/cache"
)

type memCache struct {
	data    map[string]string
	getErr  error
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

type countingTenantRepo struct {
	tenants map[string]*model.Tenant
	lookups int
	deleted []uint
}

func (r *countingTenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*model.Tenant, error) {
	r.lookups++
	t, ok := r.tenants[subdomain]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *countingTenantRepo) GetByID(_ context.Context, id uint) (*model.Tenant, error) {
	for _, t := range r.tenants {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *countingTenantRepo) Create(_ context.Context, tenant *model.Tenant) error {
	r.tenants[tenant.SubdomainValue()] = tenant
	return nil
}

func (r *countingTenantRepo) Update(_ context.Context, tenant *model.Tenant) error {
	r.tenants[tenant.SubdomainValue()] = tenant
	return nil
}

func (r *countingTenantRepo) SoftDelete(_ context.Context, id uint, _ *uint) error {
	r.deleted = append(r.deleted, id)
	for k, t := range r.tenants {
		if t.ID == id {
			delete(r.tenants, k)
		}
	}
	return nil
}

func newAcmeRepo() *countingTenantRepo {
	sub := "acme"
	return &countingTenantRepo{tenants: map[string]*model.Tenant{
		"acme": {Base: model.Base{ID: 1, IsActive: true}, Name: "Acme", Slug: "acme", Subdomain: &sub, Plan: model.PlanPro},
	}}
}

func TestCachedTenantRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := newAcmeRepo()
	c := newMemCache()
	repo := NewCachedTenantRepository(inner, c, time.Minute, nil)

	first, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	second, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.lookups)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "acme", second.SubdomainValue())
	assert.Equal(t, model.PlanPro, second.Plan)
	assert.Contains(t, c.data, "tenant:subdomain:acme")
}

func TestCachedTenantRepository_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := newAcmeRepo()
	c := newMemCache()
	repo := NewCachedTenantRepository(inner, c, time.Minute, nil)

	_, err := repo.GetBySubdomain(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, c.data)
}

func TestCachedTenantRepository_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	inner := newAcmeRepo()
	c := newMemCache()
	c.getErr = errors.New("connection refused")
	repo := NewCachedTenantRepository(inner, c, time.Minute, nil)

	tenant, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, uint(1), tenant.ID)
	assert.Equal(t, 1, inner.lookups)
}

func TestCachedTenantRepository_SoftDeleteEvicts(t *testing.T) {
	ctx := context.Background()
	inner := newAcmeRepo()
	c := newMemCache()
	repo := NewCachedTenantRepository(inner, c, time.Minute, nil)

	_, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, 1, nil))
	assert.Equal(t, []uint{1}, inner.deleted)
	assert.NotContains(t, c.data, "tenant:subdomain:acme")

	_, err = repo.GetBySubdomain(ctx, "acme")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedTenantRepository_UpdateEvictsOldAndNewSubdomain(t *testing.T) {
	ctx := context.Background()
	inner := newAcmeRepo()
	c := newMemCache()
	repo := NewCachedTenantRepository(inner, c, time.Minute, nil)

	tenant, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)

	renamed := "acme2"
	tenant.Subdomain = &renamed
	require.NoError(t, repo.Update(ctx, tenant))

	assert.ElementsMatch(t, []string{"tenant:subdomain:acme", "tenant:subdomain:acme2"}, c.deleted)
}
