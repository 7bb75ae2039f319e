package model

import "time"

// BlacklistedToken is a revoked refresh token, keyed by its jti claim.
// Rows past ExpiresAt carry no information and may be purged.
type BlacklistedToken struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	JTI           string    `json:"jti" gorm:"column:jti;type:varchar(64);uniqueIndex;not null"`
	UserID        uint      `json:"user_id" gorm:"index"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"index;not null"`
	BlacklistedAt time.Time `json:"blacklisted_at" gorm:"autoCreateTime"`
}

// AllModels lists every model managed by migrations
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&TenantPayment{},
		&BlacklistedToken{},
	}
}
