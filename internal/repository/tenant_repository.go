package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

var (
	// ErrNotFound is returned when a lookup matches no live row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

// TenantRepository reads and writes tenants. Soft-deleted tenants are never returned.
type TenantRepository interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error)
	GetByID(ctx context.Context, id uint) (*model.Tenant, error)
	Create(ctx context.Context, tenant *model.Tenant) error
	Update(ctx context.Context, tenant *model.Tenant) error
	SoftDelete(ctx context.Context, id uint, actorID *uint) error
}

// GormTenantRepository implements TenantRepository on top of gorm
type GormTenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a gorm backed tenant repository
func NewTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// GetBySubdomain finds the live tenant with the given subdomain
func (r *GormTenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("tenant_get_by_subdomain")()

	var tenant model.Tenant
	if err := r.db.WithContext(ctx).Where("subdomain = ?", subdomain).First(&tenant).Error; err != nil {
		return nil, translate(err, "get tenant by subdomain")
	}
	return &tenant, nil
}

// GetByID finds the live tenant with the given id
func (r *GormTenantRepository) GetByID(ctx context.Context, id uint) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("tenant_get")()

	var tenant model.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, translate(err, "get tenant")
	}
	return &tenant, nil
}

// Create inserts a tenant
func (r *GormTenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	defer prometheus.TrackDBOperation("tenant_create")()

	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return translate(err, "create tenant")
	}
	return nil
}

// Update saves every field of tenant
func (r *GormTenantRepository) Update(ctx context.Context, tenant *model.Tenant) error {
	defer prometheus.TrackDBOperation("tenant_update")()

	if err := r.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return translate(err, "update tenant")
	}
	return nil
}

// SoftDelete stamps deleted_at and deleted_by_id on the tenant and its payments.
// Rows are never removed.
func (r *GormTenantRepository) SoftDelete(ctx context.Context, id uint, actorID *uint) error {
	defer prometheus.TrackDBOperation("tenant_soft_delete")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		stamp := map[string]interface{}{
			"deleted_at":    now,
			"deleted_by_id": actorID,
			"is_active":     false,
		}

		res := tx.Model(&model.Tenant{}).Where("id = ?", id).UpdateColumns(stamp)
		if res.Error != nil {
			return fmt.Errorf("failed to delete tenant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Model(&model.TenantPayment{}).Where("tenant_id = ?", id).UpdateColumns(stamp).Error; err != nil {
			return fmt.Errorf("failed to delete tenant payments: %w", err)
		}
		return nil
	})
}

// translate maps gorm errors onto the repository sentinels
func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
