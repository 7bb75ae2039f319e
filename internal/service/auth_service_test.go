package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
)

func strPtr(s string) *string { return &s }

type authFixture struct {
	users     *memUserRepo
	tenants   *memTenantRepo
	publisher *recordingPublisher
	svc       *AuthService
	acme      *model.Tenant
	globex    *model.Tenant
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:     newMemUserRepo(),
		tenants:   newMemTenantRepo(),
		publisher: &recordingPublisher{},
	}
	f.svc = NewAuthService(f.users, f.publisher)
	f.acme = f.tenants.add("Acme", "acme")
	f.globex = f.tenants.add("Globex", "globex")
	return f
}

func (f *authFixture) register(t *testing.T, tenant *model.Tenant, email, password string) *model.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), tenant, RegisterInput{
		Email:    strPtr(email),
		Password: strPtr(password),
	})
	require.NoError(t, err)
	return user
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Fields
}

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture()

	user, err := f.svc.Register(context.Background(), f.acme, RegisterInput{
		Email:     strPtr("Test@Test.com"),
		Password:  strPtr("Testing@123"),
		FirstName: " Jane ",
	})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "test@test.com", user.Email)
	assert.Equal(t, "test", user.Username)
	assert.Equal(t, "Jane", user.FirstName)
	require.NotNil(t, user.TenantID)
	assert.Equal(t, f.acme.ID, *user.TenantID)
	assert.True(t, user.IsActive)
	assert.True(t, user.CheckPassword("Testing@123"))
	assert.Equal(t, []string{events.SubjectUserRegistered}, f.publisher.subjects)
}

func TestRegister_MissingTenant(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Register(context.Background(), nil, RegisterInput{})
	assert.ErrorIs(t, err, ErrTenantMissing)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	f.register(t, f.acme, "test@test.com", "Testing@123")

	_, err := f.svc.Register(context.Background(), f.acme, RegisterInput{
		Email:    strPtr("TEST@test.com"),
		Password: strPtr("test"),
	})

	fields := validationFields(t, err)
	assert.Equal(t, []string{MsgEmailTaken}, fields["email"])
	assert.Equal(t, []string{MsgPasswordUppercase, MsgPasswordTooShort}, fields["password"])
	assert.Len(t, f.users.users, 1)
}

func TestRegister_BlankAndMissingFields(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Register(context.Background(), f.acme, RegisterInput{Email: strPtr("")})
	fields := validationFields(t, err)
	assert.Equal(t, []string{MsgFieldBlank}, fields["email"])
	assert.Equal(t, []string{MsgPasswordRequired}, fields["password"])

	_, err = f.svc.Register(context.Background(), f.acme, RegisterInput{Password: strPtr("Testing@123")})
	fields = validationFields(t, err)
	assert.Equal(t, []string{MsgFieldRequired}, fields["email"])
	assert.NotContains(t, fields, "password")
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Register(context.Background(), f.acme, RegisterInput{
		Email:    strPtr("not-an-email"),
		Password: strPtr("Testing@123"),
	})
	fields := validationFields(t, err)
	assert.Equal(t, []string{MsgEmailInvalid}, fields["email"])
	assert.Empty(t, f.users.users)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture()
	registered := f.register(t, f.acme, "test@test.com", "Testing@123")

	user, err := f.svc.Login(context.Background(), f.acme, LoginInput{Email: "TEST@test.com", Password: "Testing@123"})
	require.NoError(t, err)

	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, user.LastLogin)
	assert.NotNil(t, f.users.users[user.ID].LastLogin)
	assert.Contains(t, f.publisher.subjects, events.SubjectUserLoggedIn)
}

func TestLogin_Failures(t *testing.T) {
	f := newAuthFixture()
	user := f.register(t, f.acme, "test@test.com", "Testing@123")

	_, err := f.svc.Login(context.Background(), f.acme, LoginInput{Email: "test@test.com", Password: "Wrong@1234"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = f.svc.Login(context.Background(), f.acme, LoginInput{Email: "nobody@test.com", Password: "Testing@123"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = f.svc.Login(context.Background(), f.globex, LoginInput{Email: "test@test.com", Password: "Testing@123"})
	assert.ErrorIs(t, err, ErrTenantMismatch)

	_, err = f.svc.Login(context.Background(), nil, LoginInput{Email: "test@test.com", Password: "Testing@123"})
	assert.ErrorIs(t, err, ErrTenantMissing)

	f.users.users[user.ID].IsActive = false
	_, err = f.svc.Login(context.Background(), f.acme, LoginInput{Email: "test@test.com", Password: "Testing@123"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLogin_WrongPasswordForOtherTenantIsCredentialFailure(t *testing.T) {
	f := newAuthFixture()
	f.register(t, f.acme, "test@test.com", "Testing@123")

	_, err := f.svc.Login(context.Background(), f.globex, LoginInput{Email: "test@test.com", Password: "Wrong@1234"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLogin_SoftDeletedUserCannotLogIn(t *testing.T) {
	f := newAuthFixture()
	user := f.register(t, f.acme, "test@test.com", "Testing@123")
	require.NoError(t, f.users.SoftDelete(context.Background(), user.ID, nil))

	_, err := f.svc.Login(context.Background(), f.acme, LoginInput{Email: "test@test.com", Password: "Testing@123"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLogin_BlankFields(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Login(context.Background(), f.acme, LoginInput{})
	fields := validationFields(t, err)
	assert.Equal(t, []string{MsgFieldBlank}, fields["email"])
	assert.Equal(t, []string{MsgFieldBlank}, fields["password"])
}

func TestCreateUser_PlatformAccount(t *testing.T) {
	f := newAuthFixture()

	user, err := f.svc.CreateUser(context.Background(), CreateUserInput{
		Email:       "Admin@Example.com",
		Password:    "Testing@123",
		IsSuperuser: true,
	})
	require.NoError(t, err)

	assert.Nil(t, user.TenantID)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsStaff)
	assert.Equal(t, "admin@example.com", user.Email)

	_, err = f.svc.CreateUser(context.Background(), CreateUserInput{Email: "admin@example.com", Password: "Testing@123"})
	fields := validationFields(t, err)
	assert.Equal(t, []string{MsgEmailTaken}, fields["email"])
}

func TestCurrentUser(t *testing.T) {
	f := newAuthFixture()
	user := f.register(t, f.acme, "test@test.com", "Testing@123")

	got, err := f.svc.CurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = f.svc.CurrentUser(context.Background(), 999)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPublishFailureDoesNotFailRegistration(t *testing.T) {
	f := newAuthFixture()
	f.publisher.err = errors.New("broker down")

	f.register(t, f.acme, "test@test.com", "Testing@123")
	assert.Len(t, f.users.users, 1)
}
