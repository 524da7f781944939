package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/acquisitions/internal/auth"
	"github.com/spec-kit/acquisitions/internal/domain"
	"github.com/spec-kit/acquisitions/internal/events"
	"github.com/spec-kit/acquisitions/internal/repository"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

// UsersService manages profiles under the owner-or-admin access policy.
type UsersService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUsersService builds the service.
func NewUsersService(users repository.UserRepository, hasher *auth.PasswordHasher, dispatcher events.Dispatcher, logger *zap.Logger) *UsersService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersService{users: users, hasher: hasher, dispatcher: dispatcher, logger: logger}
}

// List returns every account. Route guards restrict it to admins.
func (s *UsersService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns the profile id when principal is its owner or an admin.
func (s *UsersService) Get(ctx context.Context, principal *auth.Principal, id string) (*domain.User, error) {
	if err := auth.Decide(principal, auth.ActionRead, id, domain.UserChanges{}).Err(); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Update applies changes to profile id. The access decision is made before the
// record is looked up.
func (s *UsersService) Update(ctx context.Context, principal *auth.Principal, id string, changes domain.UserChanges) (*domain.User, error) {
	if err := auth.Decide(principal, auth.ActionUpdate, id, changes).Err(); err != nil {
		return nil, err
	}
	if changes.Empty() {
		return nil, apperrors.NewValidationError("at least one field must be provided", nil)
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previousRole := user.Role

	if changes.Email != nil && *changes.Email != user.Email {
		existing, err := s.users.GetByEmail(ctx, *changes.Email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, apperrors.NewConflict(msgEmailExists, nil)
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		user.Email = *changes.Email
	}
	if changes.Name != nil {
		user.Name = *changes.Name
	}
	if changes.Password != nil {
		hash, err := s.hasher.Hash(*changes.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if changes.Role != nil {
		user.Role = *changes.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperrors.NewConflict(msgEmailExists, nil)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("User", nil)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	roleChanged := user.Role != previousRole
	s.logger.Info("user updated",
		zap.String("user_id", user.ID),
		zap.String("actor_id", principal.ID),
		zap.Bool("role_changed", roleChanged))
	publishUserEvent(ctx, s.dispatcher, s.logger, events.EventUserUpdated, user, actorOf(principal), roleChanged)
	return user, nil
}

// Delete removes profile id and returns the removed record.
func (s *UsersService) Delete(ctx context.Context, principal *auth.Principal, id string) (*domain.User, error) {
	if err := auth.Decide(principal, auth.ActionDelete, id, domain.UserChanges{}).Err(); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User", nil)
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", principal.ID))
	publishUserEvent(ctx, s.dispatcher, s.logger, events.EventUserDeleted, user, actorOf(principal), false)
	return user, nil
}

func (s *UsersService) find(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("User", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func actorOf(p *auth.Principal) events.Actor {
	return events.Actor{UserID: p.ID, Role: p.Role}
}
