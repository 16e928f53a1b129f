package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core/post"
)

type postApi struct {
	deps ServerDeps
}

func registerPostAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := postApi{deps: deps}

	pg := g.Group("/post", jwt, guardianMiddleware())
	pg.POST("/add-post", api.create)
	pg.GET("/get-all-post/:childId", api.query)
	pg.PUT("/update/:id", api.update)
	pg.DELETE("/delete/:id", api.destroy)
}

func (api *postApi) create(ctx echo.Context) error {
	var data post.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	p, err := api.deps.PostSvc.Add(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == post.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding post")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *postApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	posts, err := api.deps.PostSvc.AllForChild(ctx.Request().Context(), claims.Subject, ctx.Param("childId"))
	if err != nil {
		if errors.Cause(err) == post.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []post.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *postApi) update(ctx echo.Context) error {
	var data post.UpdatePost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePost")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	p, err := api.deps.PostSvc.Update(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == post.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *postApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.deps.PostSvc.Delete(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		if errors.Cause(err) == post.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}
