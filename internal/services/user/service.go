// Package user handles registration and agent approval. Registration
// provisions the user's wallet; money movement is the settlement engine's
// job.
package user

import (
	"context"
	"strings"

	"dwallet/internal/apperr"
	"dwallet/internal/models"
	"dwallet/internal/repositories"
	"dwallet/internal/services/wallet"

	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
	PIN      string
	Role     string // USER or AGENT
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	ApproveAgent(ctx context.Context, userID uint) (*models.User, error)
	GetByID(ctx context.Context, userID uint) (*models.User, error)
}

type service struct {
	store   repositories.Store
	wallets wallet.Service
}

func NewService(store repositories.Store, wallets wallet.Service) Service {
	if store == nil {
		panic("store is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	return &service{store: store, wallets: wallets}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	role := strings.ToUpper(req.Role)
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAgent {
		return nil, apperr.BadRequest("role must be USER or AGENT")
	}
	if req.Name == "" || req.Email == "" || req.Phone == "" {
		return nil, apperr.BadRequest("name, email and phone are required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.BadRequest("password must be at least 8 characters")
	}

	if _, err := s.store.UserByEmail(ctx, req.Email); err == nil {
		return nil, apperr.BadRequest("email already registered")
	}
	if _, err := s.store.UserByPhone(ctx, req.Phone); err == nil {
		return nil, apperr.BadRequest("phone already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hash),
		Role:     role,
		Status:   models.UserStatusActive,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}

	// Wallet provisioning also links user.WalletID.
	w, err := s.wallets.Create(ctx, u.ID, req.PIN)
	if err != nil {
		return nil, err
	}
	u.WalletID = &w.ID
	u.Wallet = w

	return u, nil
}

// ApproveAgent marks an AGENT account as approved to facilitate cash-in and
// cash-out. Admin only; enforced at the HTTP layer.
func (s *service) ApproveAgent(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleAgent {
		return nil, apperr.BadRequest("user is not an agent")
	}
	u.AgentApproved = true
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *service) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}
