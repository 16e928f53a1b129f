package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core/account"
)

type tutorApi struct {
	deps ServerDeps
}

func registerTutorAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := tutorApi{deps: deps}

	tg := g.Group("/tutor", jwt)
	tg.PUT("/complete-profile", api.completeProfile, tutorMiddleware())

	// the directory is readable by any authenticated account
	tg.GET("/get-all-tutors", api.query)
	tg.GET("/get-by-id/:id", api.retrieve)
}

func (api *tutorApi) completeProfile(ctx echo.Context) error {
	var data account.CompleteTutorProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteTutorProfile")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	acct, err := api.deps.AccountSvc.CompleteTutorProfile(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "completing tutor profile")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *tutorApi) query(ctx echo.Context) error {
	filter := new(account.TutorFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []account.Account{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tutors, err := api.deps.AccountSvc.Tutors(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tutors")
	}
	if tutors == nil {
		tutors = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, tutors)
}

func (api *tutorApi) retrieve(ctx echo.Context) error {
	acct, err := api.deps.AccountSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting tutor by id")
	}
	if !acct.IsTutor() {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, acct)
}
