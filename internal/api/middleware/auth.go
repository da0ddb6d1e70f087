package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/api/metrics"
	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// CallerKey is the echo context key under which the resolved caller is stored.
const CallerKey = "caller"

// Auth validates the bearer JWT and resolves the caller into the request
// context, consulting the identity cache before the user store. A missing,
// invalid or expired credential is always a 401: portals redirect to login,
// they never render with empty data.
func Auth(jwtSecret string, cache ports.IdentityCache, users ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			email, _ := claims["email"].(string)
			if email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity claims")
			}
			email = domain.NormalizeEmail(email)

			ctx := c.Request().Context()
			caller, ok := cache.Get(ctx, email)
			if ok {
				metrics.IdentityCacheTotal.WithLabelValues("hit").Inc()
			} else {
				metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()
				caller, err = users.FindByEmail(ctx, email)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
				}
				cache.Set(ctx, caller)
			}

			c.Set(CallerKey, caller)
			return next(c)
		}
	}
}
