package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/account"
)

const (
	contextTokenKey   = "accountToken"
	contextAccountKey = "account"
)

// newJWTConfig builds the JWT auth middleware config. There is no refresh
// endpoint: a token is trusted until it expires or a call rejects it.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Phone      string `json:"phone,omitempty"`
	IsGuardian bool   `json:"is_guardian,omitempty"` // -> GUARDIAN PORTAL
	IsTutor    bool   `json:"is_tutor,omitempty"`    // -> TUTOR PORTAL
}

func GetAccountClaims(conf *core.Config, acct account.Account) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   acct.ID,
			Audience:  "Tunza",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Phone:      acct.Phone,
		IsGuardian: acct.IsGuardian(),
		IsTutor:    acct.IsTutor(),
	}
}

func authenticate(ctx context.Context, conf *core.Config, data account.Credentials, svc account.Service) (*Claims, error) {
	phone, err := account.NormalizePhone(data.Phone)
	if err != nil {
		return nil, errAuthenticationFailed
	}

	acct, err := svc.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding account by phone")
	}
	if err = acct.CheckPassword(data.Password); err != nil {
		return nil, errAuthenticationFailed
	}
	if acct.IsActive != nil && !*acct.IsActive {
		return nil, errAccountDeactivated
	}
	if !acct.PhoneVerified {
		return nil, errPhoneUnverified
	}
	acct, err = svc.SetLastLogin(ctx, acct)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetAccountClaims(conf, acct), nil
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextAccount(ctx echo.Context, svc account.Service, clms ...Claims) (account.Account, error) {
	if acct, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return acct, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return account.Account{}, errors.Wrap(err, "getting context claims")
		}
	}

	acct, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "finding account by ID")
	}
	ctx.Set(contextAccountKey, acct)
	return acct, nil
}
