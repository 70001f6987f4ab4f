package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshoils/freshoils-backend/internal/accounts"
	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/freshoils/freshoils-backend/pkg/db"
	"github.com/freshoils/freshoils-backend/pkg/db/models"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/freshoils/freshoils-backend/pkg/identity"
	"github.com/freshoils/freshoils-backend/pkg/phone"
	"github.com/freshoils/freshoils-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	CheckUser(ctx context.Context, req CheckUserRequest) (*CheckUserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

type sessionRotator interface {
	Rotate(ctx context.Context, provided string) (uint, string, error)
}

type tokenIssuer interface {
	Issue(ctx context.Context, user *models.User) (access string, refresh string, err error)
	Access(user *models.User) (string, error)
}

type service struct {
	users              userRepository
	sessions           sessionRotator
	issuer             tokenIssuer
	identity           identity.Verifier
	passwordCfg        config.PasswordConfig
	defaultCountryCode string
}

// ServiceParams bundles the dependencies required to build an auth service.
// IdentityVerifier may be nil when phone-ownership verification is not
// configured; register/reset then fail with a dependency error.
type ServiceParams struct {
	UserRepo           userRepository
	SessionManager     sessionRotator
	TokenIssuer        tokenIssuer
	IdentityVerifier   identity.Verifier
	PasswordConfig     config.PasswordConfig
	DefaultCountryCode string
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.TokenIssuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	return &service{
		users:              params.UserRepo,
		sessions:           params.SessionManager,
		issuer:             params.TokenIssuer,
		identity:           params.IdentityVerifier,
		passwordCfg:        params.PasswordConfig,
		defaultCountryCode: params.DefaultCountryCode,
	}, nil
}

func (s *service) CheckUser(ctx context.Context, req CheckUserRequest) (*CheckUserResponse, error) {
	normalized, err := phone.Normalize(req.PhoneNumber, s.defaultCountryCode)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByPhone(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return &CheckUserResponse{Exists: exists}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	normalized, err := phone.Normalize(req.PhoneNumber, s.defaultCountryCode)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !user.HasUsablePassword() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	access, refresh, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         accounts.FromModel(user),
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	normalized, err := s.verifiedPhone(ctx, req.IdentityToken)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, &models.User{
		PhoneNumber:       normalized,
		Name:              req.Name,
		PasswordHash:      &hash,
		IsProfileComplete: true,
		IsActive:          true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this phone number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	access, refresh, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         accounts.FromModel(user),
	}, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	normalized, err := s.verifiedPhone(ctx, req.IdentityToken)
	if err != nil {
		return err
	}

	user, err := s.users.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password hash")
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	userID, newRefresh, err := s.sessions.Rotate(ctx, req.RefreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	access, err := s.issuer.Access(user)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: access, RefreshToken: newRefresh}, nil
}

// verifiedPhone resolves and normalizes the phone number proven by the
// identity token.
func (s *service) verifiedPhone(ctx context.Context, idToken string) (string, error) {
	if s.identity == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "phone verification is not configured")
	}

	verified, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidIdentityToken) {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid identity token")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify identity token")
	}
	if verified.Phone == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "identity token carries no phone number")
	}

	return phone.Normalize(verified.Phone, s.defaultCountryCode)
}
