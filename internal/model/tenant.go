package model

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// Plan is a tenant subscription plan
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is a known plan
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// PaymentStatus is the billing state of a tenant or of a single payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusActive   PaymentStatus = "active"
	PaymentStatusInactive PaymentStatus = "inactive"
	PaymentStatusPastDue  PaymentStatus = "past_due"
	PaymentStatusCanceled PaymentStatus = "canceled"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusActive, PaymentStatusInactive, PaymentStatusPastDue, PaymentStatusCanceled:
		return true
	}
	return false
}

// Tenant is an isolated organization addressed by its subdomain,
// e.g. "acme" for acme.example.com.
type Tenant struct {
	Base
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	Slug          string          `json:"slug" gorm:"type:varchar(255);uniqueIndex"`
	Policy        string          `json:"policy,omitempty" gorm:"type:text"`
	Subdomain     *string         `json:"subdomain,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:pending"`
	Plan          Plan            `json:"plan" gorm:"type:varchar(20);not null;default:free"`
	Payments      []TenantPayment `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// BeforeSave keeps the subdomain lowercase and derives the slug from the name
func (t *Tenant) BeforeSave(tx *gorm.DB) error {
	t.Normalize()
	return nil
}

// Normalize applies the invariants enforced on every save
func (t *Tenant) Normalize() {
	if t.Subdomain != nil {
		sub := strings.ToLower(strings.TrimSpace(*t.Subdomain))
		if sub == "" {
			t.Subdomain = nil
		} else {
			t.Subdomain = &sub
		}
	}
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	if t.Plan == "" {
		t.Plan = PlanFree
	}
	if t.PaymentStatus == "" {
		t.PaymentStatus = PaymentStatusPending
	}
}

// SubdomainValue returns the subdomain or an empty string
func (t *Tenant) SubdomainValue() string {
	if t.Subdomain == nil {
		return ""
	}
	return *t.Subdomain
}

func (t *Tenant) String() string {
	sub := t.SubdomainValue()
	if sub == "" {
		sub = "no-subdomain"
	}
	return fmt.Sprintf("%s (%s)", t.Name, sub)
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowercases s, drops anything that is not a letter, digit, space or
// hyphen, and joins the remaining words with single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
