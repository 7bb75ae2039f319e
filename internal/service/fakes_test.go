package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/internal/tokenstore"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uint]*model.User{}}
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) EmailTaken(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Normalize()
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *memUserRepo) SoftDelete(_ context.Context, id uint, actorID *uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.DeletedAt.Time = time.Now()
	u.DeletedAt.Valid = true
	u.DeletedByID = actorID
	return nil
}

type memTenantRepo struct {
	mu      sync.Mutex
	nextID  uint
	tenants map[uint]*model.Tenant
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{tenants: map[uint]*model.Tenant{}}
}

func (r *memTenantRepo) add(name, subdomain string) *model.Tenant {
	t := &model.Tenant{Name: name, Subdomain: &subdomain}
	t.IsActive = true
	if err := r.Create(context.Background(), t); err != nil {
		panic(err)
	}
	return t
}

func (r *memTenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.SubdomainValue() == subdomain && !t.IsDeleted() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTenantRepo) GetByID(_ context.Context, id uint) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok || t.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTenantRepo) Create(_ context.Context, tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant.Normalize()
	for _, t := range r.tenants {
		if t.SubdomainValue() == tenant.SubdomainValue() || t.Slug == tenant.Slug {
			return fmt.Errorf("create tenant: %w", repository.ErrDuplicate)
		}
	}
	r.nextID++
	tenant.ID = r.nextID
	cp := *tenant
	r.tenants[tenant.ID] = &cp
	return nil
}

func (r *memTenantRepo) Update(_ context.Context, tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant.Normalize()
	cp := *tenant
	r.tenants[tenant.ID] = &cp
	return nil
}

func (r *memTenantRepo) SoftDelete(_ context.Context, id uint, actorID *uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok || t.IsDeleted() {
		return repository.ErrNotFound
	}
	t.DeletedAt.Time = time.Now()
	t.DeletedAt.Valid = true
	t.DeletedByID = actorID
	t.IsActive = false
	return nil
}

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: map[string]time.Time{}}
}

func (b *memBlacklist) Add(_ context.Context, jti string, _ uint, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[jti]; ok {
		return tokenstore.ErrAlreadyBlacklisted
	}
	b.entries[jti] = expiresAt
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[jti]
	return ok, nil
}

type memPaymentRepo struct {
	tenants  *memTenantRepo
	payments []model.TenantPayment
	nextID   uint
}

func (r *memPaymentRepo) Record(ctx context.Context, payment *model.TenantPayment, applyToTenant bool) error {
	tenant, err := r.tenants.GetByID(ctx, payment.TenantID)
	if err != nil {
		return err
	}
	r.nextID++
	payment.ID = r.nextID
	r.payments = append(r.payments, *payment)
	if applyToTenant {
		tenant.Plan = payment.Plan
		tenant.PaymentStatus = payment.Status
		return r.tenants.Update(ctx, tenant)
	}
	return nil
}

func (r *memPaymentRepo) ListByTenant(_ context.Context, tenantID uint) ([]model.TenantPayment, error) {
	var out []model.TenantPayment
	for i := len(r.payments) - 1; i >= 0; i-- {
		if r.payments[i].TenantID == tenantID {
			out = append(out, r.payments[i])
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *recordingPublisher) Close() {}
