package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/freshoils/freshoils-backend/internal/accounts"
	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/freshoils/freshoils-backend/pkg/db"
	"github.com/freshoils/freshoils-backend/pkg/db/models"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/freshoils/freshoils-backend/pkg/logger"
	"github.com/freshoils/freshoils-backend/pkg/phone"
	"gorm.io/gorm"
)

const (
	codeMin = 1000
	codeMax = 9999
)

const invalidOTPMessage = "Invalid or expired OTP"

// Service defines the behavior needed by the OTP controller.
type Service interface {
	Send(ctx context.Context, req SendRequest) (*SendResponse, error)
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)
}

type codeStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
	OTPKey(phone string) string
}

type smsSender interface {
	Send(ctx context.Context, to, body string) error
}

type userRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

type tokenIssuer interface {
	Issue(ctx context.Context, user *models.User) (access string, refresh string, err error)
}

type service struct {
	store              codeStore
	sms                smsSender
	users              userRepository
	issuer             tokenIssuer
	logg               *logger.Logger
	ttl                time.Duration
	defaultCountryCode string
}

// ServiceParams bundles the dependencies required to build an OTP service.
// SMS may be nil; dispatch then degrades to a server-side log line.
type ServiceParams struct {
	Store              codeStore
	SMS                smsSender
	UserRepo           userRepository
	TokenIssuer        tokenIssuer
	Logger             *logger.Logger
	OTPConfig          config.OTPConfig
	DefaultCountryCode string
}

// NewService constructs an OTP service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.TokenIssuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	ttl := params.OTPConfig.TTL
	if ttl <= 0 {
		return nil, fmt.Errorf("otp ttl must be positive")
	}
	return &service{
		store:              params.Store,
		sms:                params.SMS,
		users:              params.UserRepo,
		issuer:             params.TokenIssuer,
		logg:               params.Logger,
		ttl:                ttl,
		defaultCountryCode: params.DefaultCountryCode,
	}, nil
}

func (s *service) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	normalized, err := phone.Normalize(req.PhoneNumber, s.defaultCountryCode)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}

	// Overwrites any earlier code for the phone; only the latest one verifies.
	if err := s.store.Set(ctx, s.store.OTPKey(normalized), code, s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	s.dispatch(ctx, normalized, code)

	return &SendResponse{Message: "OTP sent"}, nil
}

func (s *service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	normalized, err := phone.Normalize(req.PhoneNumber, s.defaultCountryCode)
	if err != nil {
		return nil, err
	}

	matched, err := s.store.CompareAndDelete(ctx, s.store.OTPKey(normalized), req.Code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify otp")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidOTPMessage)
	}

	user, err := s.findOrCreateUser(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	access, refresh, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &VerifyResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         accounts.FromModel(user),
	}, nil
}

// dispatch hands the code to the SMS gateway. A missing gateway or a delivery
// failure logs the code server-side so dev flows stay unblocked; the caller
// always sees success.
func (s *service) dispatch(ctx context.Context, normalized, code string) {
	ctx = s.logg.WithPhone(ctx, normalized)

	if s.sms == nil {
		s.logg.Warn(ctx, fmt.Sprintf("sms gateway not configured, otp code: %s", code))
		return
	}

	body := fmt.Sprintf("Your verification code is %s", code)
	if err := s.sms.Send(ctx, normalized, body); err != nil {
		s.logg.Error(ctx, fmt.Sprintf("otp dispatch failed, code: %s", code), err)
	}
}

// findOrCreateUser treats a first-time verification as registration.
func (s *service) findOrCreateUser(ctx context.Context, normalized string) (*models.User, error) {
	user, err := s.users.FindByPhone(ctx, normalized)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	created, err := s.users.Create(ctx, &models.User{
		PhoneNumber: normalized,
		IsActive:    true,
	})
	if err != nil {
		// Lost a creation race; the winner's row is authoritative.
		if db.IsUniqueViolation(err, "") {
			return s.users.FindByPhone(ctx, normalized)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return created, nil
}

func generateCode() (string, error) {
	span := big.NewInt(int64(codeMax - codeMin + 1))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", codeMin+n.Int64()), nil
}
