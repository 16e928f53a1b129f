package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/message"
)

type messageApi struct {
	deps ServerDeps
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := messageApi{deps: deps}

	mg := g.Group("/message", jwt)
	mg.POST("", api.send)
	mg.GET("/get-messages/:otherUserId", api.conversation)
	mg.GET("/notifications", api.notifications)
	mg.PATCH("/notification/:id/read", api.markNotificationRead)
}

func (api *messageApi) send(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	m, err := api.deps.MessageSvc.Send(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		switch errors.Cause(err) {
		case message.ErrRecipientNotFound:
			return core.NewValidationError(nil, core.FieldError{Field: "recipientId", Error: err.Error()})
		case message.ErrSelfMessage:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *messageApi) conversation(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msgs, err := api.deps.MessageSvc.Conversation(ctx.Request().Context(), claims.Subject, ctx.Param("otherUserId"))
	if err != nil {
		return errors.Wrap(err, "querying conversation")
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) notifications(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifs, err := api.deps.MessageSvc.Notifications(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []message.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *messageApi) markNotificationRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.deps.MessageSvc.MarkNotificationRead(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == message.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, n)
}
