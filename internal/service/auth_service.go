package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/acquisitions/internal/auth"
	"github.com/spec-kit/acquisitions/internal/domain"
	"github.com/spec-kit/acquisitions/internal/events"
	"github.com/spec-kit/acquisitions/internal/repository"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

const (
	msgEmailExists        = "User with this email already exists"
	msgInvalidCredentials = "Invalid email or password"
)

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// SignUpInput carries validated registration fields.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     *auth.PasswordHasher
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// SignUp registers a new account and opens a session for it.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict(msgEmailExists, nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if !role.Assignable() {
		role = domain.RoleUser
	}
	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict(msgEmailExists, nil)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.openSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	publishUserEvent(ctx, s.dispatcher, s.logger, events.EventUserSignedUp, user, events.Actor{UserID: user.ID, Role: user.Role}, false)
	return session, nil
}

// SignIn verifies credentials. Unknown email and wrong password fail identically.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if !ok {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}

	session, err := s.openSession(user)
	if err != nil {
		return nil, err
	}
	publishUserEvent(ctx, s.dispatcher, s.logger, events.EventUserSignedIn, user, events.Actor{UserID: user.ID, Role: user.Role}, false)
	return session, nil
}

// SignOut records the sign-out of principal, if any. Tokens are stateless so
// there is nothing to revoke.
func (s *AuthService) SignOut(ctx context.Context, principal *auth.Principal) {
	if principal == nil || s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventUserSignedOut,
		SubjectID: principal.ID,
		Actor:     events.Actor{UserID: principal.ID, Role: principal.Role},
		Payload:   events.UserPayload{Email: principal.Email, Role: principal.Role},
	}); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(events.EventUserSignedOut)), zap.Error(err))
	}
}

func (s *AuthService) openSession(user *domain.User) (*Session, error) {
	token, exp, err := s.tokens.GenerateToken(auth.Principal{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func publishUserEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, eventType events.EventType, user *domain.User, actor events.Actor, roleChanged bool) {
	if dispatcher == nil {
		return
	}
	err := dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		SubjectID: user.ID,
		Actor:     actor,
		Payload:   events.UserPayload{Email: user.Email, Role: user.Role, RoleChanged: roleChanged},
	})
	if err != nil {
		logger.Warn("publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
