package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

// PaymentRepository records tenant payments
type PaymentRepository interface {
	// Record inserts payment and, when applyToTenant is set, copies its plan and
	// status onto the owning tenant in the same transaction.
	Record(ctx context.Context, payment *model.TenantPayment, applyToTenant bool) error
	ListByTenant(ctx context.Context, tenantID uint) ([]model.TenantPayment, error)
}

// GormPaymentRepository implements PaymentRepository on top of gorm
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a gorm backed payment repository
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Record inserts payment, optionally updating the tenant subscription
func (r *GormPaymentRepository) Record(ctx context.Context, payment *model.TenantPayment, applyToTenant bool) error {
	defer prometheus.TrackDBOperation("payment_record")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if err := tx.First(&tenant, payment.TenantID).Error; err != nil {
			return translate(err, "get tenant")
		}

		if err := tx.Create(payment).Error; err != nil {
			return translate(err, "create payment")
		}

		if !applyToTenant {
			return nil
		}
		err := tx.Model(&tenant).Updates(map[string]interface{}{
			"plan":           payment.Plan,
			"payment_status": payment.Status,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update tenant subscription: %w", err)
		}
		return nil
	})
}

// ListByTenant returns the live payments of a tenant, newest first
func (r *GormPaymentRepository) ListByTenant(ctx context.Context, tenantID uint) ([]model.TenantPayment, error) {
	defer prometheus.TrackDBOperation("payment_list")()

	var payments []model.TenantPayment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("start_date DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
