package model

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an account. Tenant users carry a TenantID; platform accounts
// created from the admin CLI leave it nil.
type User struct {
	Base
	TenantID    *uint      `json:"tenant_id,omitempty" gorm:"index"`
	Tenant      *Tenant    `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:SET NULL"`
	Email       string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username    string     `json:"username" gorm:"type:varchar(255);index"`
	FirstName   string     `json:"first_name" gorm:"type:varchar(255)"`
	LastName    string     `json:"last_name" gorm:"type:varchar(255)"`
	Password    string     `json:"-" gorm:"type:varchar(255);not null"`
	IsStaff     bool       `json:"is_staff" gorm:"not null;default:false"`
	IsSuperuser bool       `json:"is_superuser" gorm:"not null;default:false"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// BeforeSave normalizes the email and derives the username
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Normalize()
	return nil
}

// Normalize lowercases the email and fills the username from its local part
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	if strings.TrimSpace(u.Username) == "" {
		u.Username = UsernameFromEmail(u.Email)
	}
}

// PrehashPassword digests raw with SHA-256 so inputs beyond bcrypt's 72 byte
// limit hash without truncation or error
func PrehashPassword(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	return []byte(hex.EncodeToString(sum[:]))
}

// SetPassword stores a bcrypt hash of the prehashed raw password
func (u *User) SetPassword(raw string) error {
	if raw == "" {
		return errors.New("password must be set")
	}
	hashed, err := bcrypt.GenerateFromPassword(PrehashPassword(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword reports whether raw matches the stored hash
func (u *User) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), PrehashPassword(raw)) == nil
}

// BelongsTo reports whether the user is a member of tenant.
// A nil tenant only matches platform accounts.
func (u *User) BelongsTo(tenant *Tenant) bool {
	if tenant == nil || u.TenantID == nil {
		return tenant == nil && u.TenantID == nil
	}
	return *u.TenantID == tenant.ID
}

// PublicUser is the projection of a user returned by the API
type PublicUser struct {
	ID        uint       `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	TenantID  *uint      `json:"tenant_id"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Public returns the API projection of u
func (u *User) Public() PublicUser {
	p := PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		TenantID:  u.TenantID,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.DeletedAt.Valid {
		deletedAt := u.DeletedAt.Time
		p.DeletedAt = &deletedAt
	}
	return p
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail returns the local part of email
func UsernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	return local
}
