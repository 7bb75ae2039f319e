package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
)

// PaymentInput describes a payment received from a billing provider
type PaymentInput struct {
	Provider               string
	Plan                   string
	Amount                 string
	Status                 string
	StartDate              time.Time
	ProviderSubscriptionID string
	ActorID                *uint
}

// PaymentService records tenant subscription payments
type PaymentService struct {
	payments  repository.PaymentRepository
	publisher events.Publisher
}

// NewPaymentService creates a PaymentService
func NewPaymentService(payments repository.PaymentRepository, publisher events.Publisher) *PaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PaymentService{payments: payments, publisher: publisher}
}

// RecordPayment validates in and stores it. An active payment also moves the
// tenant onto the paid plan.
func (s *PaymentService) RecordPayment(ctx context.Context, tenantID uint, in PaymentInput) (*model.TenantPayment, error) {
	verr := NewValidationError()

	provider := model.PaymentProvider(strings.ToLower(strings.TrimSpace(in.Provider)))
	if !provider.Valid() {
		verr.Add("provider", `"`+in.Provider+`" is not a valid choice.`)
	}

	plan := model.Plan(strings.ToLower(strings.TrimSpace(in.Plan)))
	if !plan.Valid() {
		verr.Add("plan", `"`+in.Plan+`" is not a valid choice.`)
	}

	status := model.PaymentStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if status == "" {
		status = model.PaymentStatusPending
	}
	if !status.Valid() {
		verr.Add("status", `"`+in.Status+`" is not a valid choice.`)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	switch {
	case err != nil:
		verr.Add("amount", "A valid number is required.")
	case !amount.IsPositive():
		verr.Add("amount", "Ensure this value is greater than 0.")
	case amount.Exponent() < -2:
		verr.Add("amount", "Ensure that there are no more than 2 decimal places.")
	case amount.GreaterThanOrEqual(decimal.New(1, 8)):
		verr.Add("amount", "Ensure that there are no more than 10 digits in total.")
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	payment := &model.TenantPayment{
		TenantID:               tenantID,
		Provider:               provider,
		Plan:                   plan,
		Amount:                 amount,
		Status:                 status,
		StartDate:              in.StartDate,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
	}
	payment.IsActive = true
	payment.CreatedByID = in.ActorID
	payment.ApplyDefaults(time.Now())

	if err := s.payments.Record(ctx, payment, status == model.PaymentStatusActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	logger.FromStdContext(ctx).Info("Tenant payment recorded",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("payment_id", payment.ID),
		zap.String("plan", string(plan)),
		zap.String("amount", amount.StringFixed(2)),
	)
	tid := tenantID
	publish(ctx, s.publisher, events.SubjectPaymentRecorded, events.Event{TenantID: &tid})
	return payment, nil
}

// ListPayments returns the payments of a tenant, newest first
func (s *PaymentService) ListPayments(ctx context.Context, tenantID uint) ([]model.TenantPayment, error) {
	return s.payments.ListByTenant(ctx, tenantID)
}
