package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core/chat"
	"github.com/smkremaja/pkl/core/user"
)

type chatApi struct {
	svc *chat.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *chat.Service, usrSvc *user.Service) {
	api := chatApi{svc: svc}

	cg := g.Group("/chats", jwt, ctxUserMiddleware(usrSvc))
	cg.GET("/contacts", api.contacts)
	cg.GET("/unread", api.unread)
	cg.POST("", api.send)
	cg.GET("/:peer", api.conversation)
}

func (api *chatApi) contacts(ctx echo.Context) error {
	users, err := api.svc.Contacts(ctx.Request().Context(), mustContextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "listing contacts")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *chatApi) unread(ctx echo.Context) error {
	counts, err := api.svc.Unread(ctx.Request().Context(), mustContextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *chatApi) send(ctx echo.Context) error {
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	msg, err := api.svc.Send(ctx.Request().Context(), mustContextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

// conversation returns the messages exchanged with :peer and marks the received ones as read.
func (api *chatApi) conversation(ctx echo.Context) error {
	msgs, err := api.svc.Conversation(ctx.Request().Context(), mustContextUser(ctx).ID, ctx.Param("peer"))
	if err != nil {
		return errors.Wrap(err, "getting conversation")
	}
	return ctx.JSON(http.StatusOK, msgs)
}
