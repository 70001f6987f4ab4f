package auth

import (
	"context"
	"fmt"
	"time"

	pkgAuth "github.com/freshoils/freshoils-backend/pkg/auth"
	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/freshoils/freshoils-backend/pkg/db/models"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
)

type refreshGenerator interface {
	Generate(ctx context.Context, userID uint) (string, error)
}

// TokenIssuer mints the access/refresh pair handed out after any successful
// authentication (password login, OTP verify, registration).
type TokenIssuer struct {
	sessions refreshGenerator
	jwtCfg   config.JWTConfig
}

// NewTokenIssuer builds the shared token issuer.
func NewTokenIssuer(sessions refreshGenerator, jwtCfg config.JWTConfig) (*TokenIssuer, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &TokenIssuer{sessions: sessions, jwtCfg: jwtCfg}, nil
}

// Issue returns a fresh token pair for the user.
func (ti *TokenIssuer) Issue(ctx context.Context, user *models.User) (access string, refresh string, err error) {
	access, err = ti.Access(user)
	if err != nil {
		return "", "", err
	}

	refresh, err = ti.sessions.Generate(ctx, user.ID)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return access, refresh, nil
}

// Access mints an access token only, leaving refresh sessions untouched.
func (ti *TokenIssuer) Access(user *models.User) (string, error) {
	if user == nil || user.ID == 0 {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "cannot issue tokens without a user")
	}

	access, err := pkgAuth.MintAccessToken(ti.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:  user.ID,
		Phone:   user.PhoneNumber,
		IsStaff: user.IsStaff,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return access, nil
}
