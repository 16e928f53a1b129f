package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core/account"
)

type guardianApi struct {
	deps ServerDeps
}

func registerGuardianAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := guardianApi{deps: deps}

	gg := g.Group("/guardian", jwt, guardianMiddleware())
	gg.PUT("/complete-profile", api.completeProfile)
}

func (api *guardianApi) completeProfile(ctx echo.Context) error {
	var data account.CompleteGuardianProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteGuardianProfile")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	acct, err := api.deps.AccountSvc.CompleteGuardianProfile(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "completing guardian profile")
	}
	return ctx.JSON(http.StatusOK, acct)
}
