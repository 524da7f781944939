package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/acquisitions/internal/auth"
	"github.com/spec-kit/acquisitions/internal/domain"
	"github.com/spec-kit/acquisitions/internal/events"
	"github.com/spec-kit/acquisitions/internal/repository"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

type fixture struct {
	repo   repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	auth   *AuthService
	users  *UsersService

	mu     sync.Mutex
	events []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   repository.NewMemoryUserRepository(),
		hasher: auth.NewPasswordHasher(bcrypt.MinCost),
		tokens: auth.NewTokenManager("test-secret", time.Hour, "acquisitions"),
	}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, e)
		return nil
	}
	for _, et := range []events.EventType{
		events.EventUserSignedUp, events.EventUserSignedIn, events.EventUserSignedOut,
		events.EventUserUpdated, events.EventUserDeleted,
	} {
		dispatcher.Subscribe(et, record)
	}

	f.auth = NewAuthService(AuthDependencies{
		UserRepo:   f.repo,
		Hasher:     f.hasher,
		Tokens:     f.tokens,
		Dispatcher: dispatcher,
	})
	f.users = NewUsersService(f.repo, f.hasher, dispatcher, nil)
	return f
}

func (f *fixture) signUp(t *testing.T, name, email string, role domain.Role) *Session {
	t.Helper()
	session, err := f.auth.SignUp(context.Background(), SignUpInput{
		Name:     name,
		Email:    email,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return session
}

func (f *fixture) eventTypes() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]events.EventType, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.Type)
	}
	return types
}

func principalOf(s *Session) *auth.Principal {
	return &auth.Principal{ID: s.User.ID, Email: s.User.Email, Role: s.User.Role}
}

func TestSignUpIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)

	session := f.signUp(t, "Ann", "ann@x.com", domain.RoleUser)
	assert.NotEmpty(t, session.User.ID)
	assert.Equal(t, domain.RoleUser, session.User.Role)
	assert.NotEqual(t, "secret123", session.User.PasswordHash)

	claims, err := f.tokens.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.ID)
	assert.Equal(t, "ann@x.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)

	assert.Equal(t, []events.EventType{events.EventUserSignedUp}, f.eventTypes())
}

func TestSignUpDefaultsRoleToUser(t *testing.T) {
	f := newFixture(t)

	session := f.signUp(t, "Ann", "ann@x.com", "")
	assert.Equal(t, domain.RoleUser, session.User.Role)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "Ann", "ann@x.com", domain.RoleUser)

	_, err := f.auth.SignUp(context.Background(), SignUpInput{Name: "Other", Email: "ann@x.com", Password: "another123"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.Equal(t, "User with this email already exists", apperrors.ToDomainError(err).Message)
}

func TestSignInUniformFailure(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "Ann", "ann@x.com", domain.RoleUser)
	ctx := context.Background()

	_, wrongPassword := f.auth.SignIn(ctx, "ann@x.com", "wrongpass")
	_, unknownEmail := f.auth.SignIn(ctx, "nobody@x.com", "secret123")

	for _, err := range []error{wrongPassword, unknownEmail} {
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeUnauthorized, domainErr.Code)
		assert.Equal(t, "Invalid email or password", domainErr.Message)
	}
}

func TestSignInSuccess(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "Ann", "ann@x.com", domain.RoleAdmin)

	session, err := f.auth.SignIn(context.Background(), "ann@x.com", "secret123")
	require.NoError(t, err)
	claims, err := f.tokens.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Contains(t, f.eventTypes(), events.EventUserSignedIn)
}

func TestSignOutPublishesOnlyForKnownPrincipal(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "Ann", "ann@x.com", domain.RoleUser)

	f.auth.SignOut(context.Background(), nil)
	assert.NotContains(t, f.eventTypes(), events.EventUserSignedOut)

	f.auth.SignOut(context.Background(), principalOf(session))
	assert.Contains(t, f.eventTypes(), events.EventUserSignedOut)
}
