package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentProvider identifies the billing backend a payment came from
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderPayPal PaymentProvider = "paypal"
)

// Valid reports whether p is a known provider
func (p PaymentProvider) Valid() bool {
	return p == ProviderStripe || p == ProviderPayPal
}

// PlanDurationDays is the subscription length granted by one payment.
// Zero means the plan never expires.
var PlanDurationDays = map[Plan]int{
	PlanFree:       0,
	PlanBasic:      30,
	PlanPro:        30,
	PlanEnterprise: 30,
}

// TenantPayment records a single subscription payment of a tenant
type TenantPayment struct {
	Base
	TenantID               uint            `json:"tenant_id" gorm:"index;not null"`
	Provider               PaymentProvider `json:"provider" gorm:"type:varchar(20);not null"`
	Plan                   Plan            `json:"plan" gorm:"type:varchar(20);not null"`
	Amount                 decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Status                 PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:pending"`
	StartDate              time.Time       `json:"start_date" gorm:"not null"`
	EndDate                *time.Time      `json:"end_date,omitempty"`
	ProviderSubscriptionID string          `json:"provider_subscription_id,omitempty" gorm:"type:varchar(255);index"`
}

// BeforeSave derives the end date from the plan when none was given
func (p *TenantPayment) BeforeSave(tx *gorm.DB) error {
	p.ApplyDefaults(time.Now())
	return nil
}

// ApplyDefaults fills StartDate, Status and EndDate relative to now
func (p *TenantPayment) ApplyDefaults(now time.Time) {
	if p.StartDate.IsZero() {
		p.StartDate = now
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	if p.EndDate == nil {
		if days := PlanDurationDays[p.Plan]; days > 0 {
			end := p.StartDate.AddDate(0, 0, days)
			p.EndDate = &end
		}
	}
}

// IsExpired reports whether the subscription has an end date in the past
func (p *TenantPayment) IsExpired() bool {
	return p.IsExpiredAt(time.Now())
}

// IsExpiredAt is IsExpired evaluated at now
func (p *TenantPayment) IsExpiredAt(now time.Time) bool {
	return p.EndDate != nil && now.After(*p.EndDate)
}
