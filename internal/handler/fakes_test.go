package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/internal/tokenstore"
)

type memUsers struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.User
}

func (r *memUsers) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	return r.find(func(u *model.User) bool { return u.Email == email && !u.IsDeleted() })
}

func (r *memUsers) GetByID(_ context.Context, id uint) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id && !u.IsDeleted() })
}

func (r *memUsers) EmailTaken(_ context.Context, email string) (bool, error) {
	email = model.NormalizeEmail(email)
	_, err := r.find(func(u *model.User) bool { return u.Email == email })
	return err == nil, nil
}

func (r *memUsers) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Normalize()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

func (r *memUsers) UpdateLastLogin(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.LastLogin = &at
		return nil
	}
	return repository.ErrNotFound
}

func (r *memUsers) SoftDelete(_ context.Context, id uint, _ *uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.DeletedAt.Time = time.Now()
		u.DeletedAt.Valid = true
		return nil
	}
	return repository.ErrNotFound
}

type memTenants struct {
	byID map[uint]*model.Tenant
}

func (r *memTenants) GetBySubdomain(_ context.Context, subdomain string) (*model.Tenant, error) {
	for _, t := range r.byID {
		if t.SubdomainValue() == subdomain && !t.IsDeleted() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTenants) GetByID(_ context.Context, id uint) (*model.Tenant, error) {
	if t, ok := r.byID[id]; ok && !t.IsDeleted() {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memTenants) Create(_ context.Context, tenant *model.Tenant) error {
	tenant.Normalize()
	tenant.ID = uint(len(r.byID) + 1)
	cp := *tenant
	r.byID[tenant.ID] = &cp
	return nil
}

func (r *memTenants) Update(_ context.Context, tenant *model.Tenant) error {
	cp := *tenant
	r.byID[tenant.ID] = &cp
	return nil
}

func (r *memTenants) SoftDelete(_ context.Context, id uint, _ *uint) error {
	t, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.DeletedAt.Time = time.Now()
	t.DeletedAt.Valid = true
	return nil
}

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]bool
}

func (b *memBlacklist) Add(_ context.Context, jti string, _ uint, _ time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.entries[jti] {
		return tokenstore.ErrAlreadyBlacklisted
	}
	b.entries[jti] = true
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[jti], nil
}
