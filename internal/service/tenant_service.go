package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
)

// TenantInput describes a tenant to provision
type TenantInput struct {
	Name      string
	Subdomain string
	Plan      string
	Policy    string
	ActorID   *uint
}

// TenantService provisions and retires tenants
type TenantService struct {
	tenants   repository.TenantRepository
	publisher events.Publisher
}

// NewTenantService creates a TenantService
func NewTenantService(tenants repository.TenantRepository, publisher events.Publisher) *TenantService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TenantService{tenants: tenants, publisher: publisher}
}

// Create validates in and inserts a tenant
func (s *TenantService) Create(ctx context.Context, in TenantInput) (*model.Tenant, error) {
	verr := NewValidationError()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", MsgFieldBlank)
	}

	subdomain := strings.ToLower(strings.TrimSpace(in.Subdomain))
	if subdomain == "" {
		verr.Add("subdomain", MsgFieldBlank)
	} else if model.Slugify(subdomain) != subdomain {
		verr.Add("subdomain", "Enter a valid subdomain consisting of letters, numbers or hyphens.")
	}

	plan := model.Plan(strings.ToLower(strings.TrimSpace(in.Plan)))
	if plan == "" {
		plan = model.PlanFree
	}
	if !plan.Valid() {
		verr.Add("plan", `"`+in.Plan+`" is not a valid choice.`)
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	tenant := &model.Tenant{
		Name:      name,
		Subdomain: &subdomain,
		Plan:      plan,
		Policy:    in.Policy,
	}
	tenant.IsActive = true
	tenant.CreatedByID = in.ActorID
	tenant.Normalize()

	if err := s.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			verr.Add("subdomain", "tenant with this subdomain or slug already exists.")
			return nil, verr
		}
		return nil, err
	}

	logger.FromStdContext(ctx).Info("Tenant created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("subdomain", subdomain),
	)
	return tenant, nil
}

// GetBySubdomain returns the live tenant owning subdomain
func (s *TenantService) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	tenant, err := s.tenants.GetBySubdomain(ctx, strings.ToLower(strings.TrimSpace(subdomain)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

// Delete soft-deletes the tenant owning subdomain
func (s *TenantService) Delete(ctx context.Context, subdomain string, actorID *uint) error {
	tenant, err := s.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return err
	}

	if err := s.tenants.SoftDelete(ctx, tenant.ID, actorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTenantNotFound
		}
		return err
	}

	logger.FromStdContext(ctx).Info("Tenant deleted", zap.Uint("tenant_id", tenant.ID))
	tid := tenant.ID
	publish(ctx, s.publisher, events.SubjectTenantDeleted, events.Event{TenantID: &tid})
	return nil
}
