package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/observa/core/user"
)

var (
	contextTokenKey = "userToken"
	contextRCKey    = "requestContext"
)

// newJWTConfig is the JWT auth middleware config. Tokens are issued by the admin CLI.
func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: user.SigningMethod,
		ContextKey:    contextTokenKey,
		Claims:        new(user.Claims),
	}
}

func getContextClaims(ctx echo.Context) (user.Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*user.Claims); ok {
			return *claims, nil
		}
	}
	return user.Claims{}, errUnauthorized
}

// contextRequestContext is the identity of the authenticated user of the request.
func contextRequestContext(ctx echo.Context) (user.RequestContext, error) {
	if rc, ok := ctx.Get(contextRCKey).(user.RequestContext); ok {
		return rc, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.RequestContext{}, err
	}
	rc, err := claims.RequestContext()
	if err != nil {
		return user.RequestContext{}, errUnauthorized
	}
	ctx.Set(contextRCKey, rc)
	return rc, nil
}
