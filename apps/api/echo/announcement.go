package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core/announcement"
	"github.com/smkremaja/pkl/core/user"
)

type announcementApi struct {
	svc *announcement.Service
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *announcement.Service, usrSvc *user.Service) {
	api := announcementApi{svc: svc}

	ag := g.Group("/announcements", jwt, ctxUserMiddleware(usrSvc))
	ag.GET("", api.list)
	ag.POST("", api.save, adminMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
}

// list returns the announcements for the user's role. Admins see every announcement,
// or those of the `role` query parameter.
func (api *announcementApi) list(ctx echo.Context) error {
	role := mustContextUser(ctx).Role
	if role == user.RoleAdmin {
		role = ctx.QueryParam("role")
	}
	anns, err := api.svc.List(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) save(ctx echo.Context) error {
	var data announcement.SaveAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveAnnouncement")
	}
	a, err := api.svc.Save(ctx.Request().Context(), mustContextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "saving announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) destroyMultiple(ctx echo.Context) error {
	if ids := bindIDs(ctx); len(ids) > 0 {
		if err := api.svc.Delete(ctx.Request().Context(), ids...); err != nil {
			return errors.Wrap(err, "deleting announcements")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}
