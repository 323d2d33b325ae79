// Package auth issues and refreshes the JWT pair used by the HTTP layer.
// Settlement never sees tokens; it receives an already-authenticated actor.
package auth

import (
	"context"
	"time"

	"dwallet/internal/apperr"
	"dwallet/internal/models"
	"dwallet/internal/repositories"
	"dwallet/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Login(ctx context.Context, identifier, password string) (*models.User, string, string, error)
	RefreshTokens(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, userID uint) error
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	GetUserTokenVersion(ctx context.Context, userID uint) (int, error)
}

type service struct {
	store repositories.Store
}

func NewService(store repositories.Store) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store}
}

// Login authenticates by email or phone.
func (s *service) Login(ctx context.Context, identifier, password string) (*models.User, string, string, error) {
	user, err := s.store.UserByEmail(ctx, identifier)
	if err == repositories.ErrUserNotFound {
		user, err = s.store.UserByPhone(ctx, identifier)
	}
	if err != nil {
		return nil, "", "", apperr.BadRequest("invalid credentials")
	}

	if user.Status != models.UserStatusActive {
		return nil, "", "", apperr.Forbidden("account is blocked")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", apperr.BadRequest("invalid credentials")
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, "", "", apperr.Internal(err)
	}

	user.LastLoginAt = time.Now()
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, "", "", apperr.Internal(err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", apperr.BadRequest("invalid refresh token")
	}

	user, err := s.store.UserByID(ctx, claims.UserID)
	if err != nil {
		return "", "", apperr.NotFound("user not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", apperr.Forbidden("session expired")
	}

	access, refresh, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return "", "", apperr.Internal(err)
	}
	return access, refresh, nil
}

// Logout bumps the token version so outstanding tokens stop validating.
func (s *service) Logout(ctx context.Context, userID uint) error {
	if err := s.store.IncrementTokenVersion(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *service) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *service) GetUserTokenVersion(ctx context.Context, userID uint) (int, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}
