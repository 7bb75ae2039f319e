package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
)

// TenantResolver maps a request host onto a tenant
type TenantResolver struct {
	tenants    repository.TenantRepository
	mainDomain string
}

// NewTenantResolver creates a resolver for hosts under mainDomain
func NewTenantResolver(tenants repository.TenantRepository, mainDomain string) *TenantResolver {
	return &TenantResolver{
		tenants:    tenants,
		mainDomain: strings.ToLower(strings.TrimSpace(mainDomain)),
	}
}

// MainDomain returns the configured main domain
func (r *TenantResolver) MainDomain() string {
	return r.mainDomain
}

// Subdomain extracts the tenant subdomain from host. It returns "" for the
// main domain itself and for hosts outside it.
func (r *TenantResolver) Subdomain(host string) string {
	host = strings.ToLower(stripPort(strings.TrimSpace(host)))

	if host == r.mainDomain || !strings.HasSuffix(host, r.mainDomain) {
		return ""
	}
	return strings.TrimSuffix(host, "."+r.mainDomain)
}

// Resolve returns the tenant addressed by host, nil when the host carries no
// subdomain, or ErrTenantNotFound when the subdomain is not registered.
func (r *TenantResolver) Resolve(ctx context.Context, host string) (*model.Tenant, error) {
	subdomain := r.Subdomain(host)
	if subdomain == "" {
		return nil, nil
	}

	tenant, err := r.tenants.GetBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to resolve tenant %q: %w", subdomain, err)
	}
	return tenant, nil
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
