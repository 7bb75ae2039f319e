package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
)

// Field error messages returned by registration and login
const (
	MsgFieldRequired    = "This field is required."
	MsgFieldBlank       = "This field may not be blank."
	MsgEmailInvalid     = "Enter a valid email address."
	MsgEmailTaken       = "user with this email already exists."
	MsgPasswordRequired = "This field is required"
	MsgUserRegistered   = "User registered successfully."
)

// RegisterInput is a registration request. Nil fields were not submitted.
type RegisterInput struct {
	Email     *string
	Password  *string
	FirstName string
	LastName  string
}

// LoginInput is a login request
type LoginInput struct {
	Email    string
	Password string
}

// AuthService registers and authenticates tenant users
type AuthService struct {
	users     repository.UserRepository
	publisher events.Publisher
	validate  *validator.Validate
	now       func() time.Time
}

// NewAuthService creates an AuthService
func NewAuthService(users repository.UserRepository, publisher events.Publisher) *AuthService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AuthService{
		users:     users,
		publisher: publisher,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Register validates in and creates a user scoped to tenant
func (s *AuthService) Register(ctx context.Context, tenant *model.Tenant, in RegisterInput) (*model.User, error) {
	if tenant == nil {
		return nil, ErrTenantMissing
	}

	verr := NewValidationError()
	email := s.validateEmail(in.Email, verr)

	if in.Password == nil || *in.Password == "" {
		verr.Add("password", MsgPasswordRequired)
	} else if failures := ValidatePassword(*in.Password); len(failures) > 0 {
		verr.Add("password", failures...)
	}

	if email != "" {
		taken, err := s.users.EmailTaken(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("email", MsgEmailTaken)
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	tenantID := tenant.ID
	user := &model.User{
		TenantID:  &tenantID,
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	user.IsActive = true
	user.Normalize()
	if err := user.SetPassword(*in.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			verr.Add("email", MsgEmailTaken)
			return nil, verr
		}
		return nil, err
	}

	logger.FromStdContext(ctx).Info("User registered",
		zap.Uint("user_id", user.ID),
		zap.Uint("tenant_id", tenant.ID),
	)
	publish(ctx, s.publisher, events.SubjectUserRegistered, events.Event{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
	})
	return user, nil
}

// validateEmail records email field errors on verr and returns the
// normalized address when it is syntactically valid
func (s *AuthService) validateEmail(raw *string, verr *ValidationError) string {
	if raw == nil {
		verr.Add("email", MsgFieldRequired)
		return ""
	}
	email := model.NormalizeEmail(*raw)
	if email == "" {
		verr.Add("email", MsgFieldBlank)
		return ""
	}
	if err := s.validate.Var(email, "email"); err != nil {
		verr.Add("email", MsgEmailInvalid)
		return ""
	}
	return email
}

// Login checks credentials and tenant membership and stamps last_login
func (s *AuthService) Login(ctx context.Context, tenant *model.Tenant, in LoginInput) (*model.User, error) {
	if tenant == nil {
		return nil, ErrTenantMissing
	}

	verr := NewValidationError()
	if strings.TrimSpace(in.Email) == "" {
		verr.Add("email", MsgFieldBlank)
	}
	if in.Password == "" {
		verr.Add("password", MsgFieldBlank)
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			compareDummyHash(in.Password)
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if !user.CheckPassword(in.Password) || !user.IsActive {
		return nil, ErrAuthenticationFailed
	}

	if !user.BelongsTo(tenant) {
		return nil, ErrTenantMismatch
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	publish(ctx, s.publisher, events.SubjectUserLoggedIn, events.Event{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
	})
	return user, nil
}

// CreateUserInput describes an account created outside the public API
type CreateUserInput struct {
	Email       string
	Password    string
	TenantID    *uint
	IsStaff     bool
	IsSuperuser bool
	ActorID     *uint
}

// CreateUser creates a tenant or platform account. Passwords follow the same
// rules as registration.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	verr := NewValidationError()
	email := s.validateEmail(&in.Email, verr)

	if in.Password == "" {
		verr.Add("password", MsgPasswordRequired)
	} else if failures := ValidatePassword(in.Password); len(failures) > 0 {
		verr.Add("password", failures...)
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user := &model.User{
		TenantID:    in.TenantID,
		Email:       email,
		IsStaff:     in.IsStaff || in.IsSuperuser,
		IsSuperuser: in.IsSuperuser,
	}
	user.IsActive = true
	user.CreatedByID = in.ActorID
	user.Normalize()
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			verr.Add("email", MsgEmailTaken)
			return nil, verr
		}
		return nil, err
	}
	return user, nil
}

// CurrentUser loads the live user behind an authenticated request
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummyHash spends the same bcrypt work as a real check so unknown
// emails are not distinguishable by response time
func compareDummyHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword(model.PrehashPassword("dummy-password-for-timing"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, model.PrehashPassword(password))
}
