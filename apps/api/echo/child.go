package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core/child"
)

type childApi struct {
	deps ServerDeps
}

func registerChildAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := childApi{deps: deps}

	cg := g.Group("/child", jwt, guardianMiddleware())
	cg.POST("/add-child", api.create)
	cg.GET("/get-all-children", api.query)
	cg.PATCH("/:id/about", api.updateAbout)
	cg.POST("/add-milestone", api.addMilestone)
	cg.GET("/get-milestones/:id", api.milestones)
}

func (api *childApi) create(ctx echo.Context) error {
	var data child.NewChild
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChild")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.deps.ChildSvc.Add(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "adding child")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *childApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	children, err := api.deps.ChildSvc.ChildrenOf(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	if children == nil {
		children = []child.Child{}
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *childApi) updateAbout(ctx echo.Context) error {
	var data child.UpdateAbout
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAbout")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.deps.ChildSvc.UpdateAbout(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == child.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating child about")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *childApi) addMilestone(ctx echo.Context) error {
	var data child.NewMilestone
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMilestone")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	m, err := api.deps.ChildSvc.AddMilestone(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == child.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding milestone")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *childApi) milestones(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	milestones, err := api.deps.ChildSvc.Milestones(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == child.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying milestones")
	}
	if milestones == nil {
		milestones = []child.Milestone{}
	}
	return ctx.JSON(http.StatusOK, milestones)
}
