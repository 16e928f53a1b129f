package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func guardianMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsGuardian {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func tutorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsTutor {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
