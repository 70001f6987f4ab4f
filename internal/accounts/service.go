package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/freshoils/freshoils-backend/pkg/db/models"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/freshoils/freshoils-backend/pkg/security"
	"gorm.io/gorm"
)

// Service defines the behavior needed by the profile controller.
type Service interface {
	Profile(ctx context.Context, userID uint) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, name string, address *string) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

type service struct {
	repo        userRepository
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an accounts service.
type ServiceParams struct {
	Repo           userRepository
	PasswordConfig config.PasswordConfig
}

// NewService constructs a profile service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("accounts repository is required")
	}
	return &service{
		repo:        params.Repo,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uint) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, user.ID, req.Name, req.Address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}

	user.Name = req.Name
	user.Address = req.Address
	user.IsProfileComplete = true
	return FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	// Accounts without a password always fail the old-password check.
	if !user.HasUsablePassword() {
		return pkgerrors.New(pkgerrors.CodeValidation, "incorrect old password")
	}
	valid, err := security.VerifyPassword(req.OldPassword, *user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "incorrect old password")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password hash")
	}
	return nil
}

func (s *service) load(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}
