package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/model"
)

// TenantInvalidator drops cached state of a tenant
type TenantInvalidator interface {
	Invalidate(ctx context.Context, tenantID uint) error
}

// CachedPaymentRepository evicts the owning tenant from the tenant cache when
// a recorded payment changes the tenant's plan or status
type CachedPaymentRepository struct {
	next    PaymentRepository
	tenants TenantInvalidator
	logger  *zap.Logger
}

// NewCachedPaymentRepository wraps next, invalidating tenants after writes
func NewCachedPaymentRepository(next PaymentRepository, tenants TenantInvalidator, logger *zap.Logger) *CachedPaymentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedPaymentRepository{next: next, tenants: tenants, logger: logger}
}

// Record writes through and evicts the tenant when it was updated
func (r *CachedPaymentRepository) Record(ctx context.Context, payment *model.TenantPayment, applyToTenant bool) error {
	if err := r.next.Record(ctx, payment, applyToTenant); err != nil {
		return err
	}
	if applyToTenant {
		if err := r.tenants.Invalidate(ctx, payment.TenantID); err != nil {
			r.logger.Warn("Tenant cache invalidation failed",
				zap.Uint("tenant_id", payment.TenantID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ListByTenant reads through
func (r *CachedPaymentRepository) ListByTenant(ctx context.Context, tenantID uint) ([]model.TenantPayment, error) {
	return r.next.ListByTenant(ctx, tenantID)
}
