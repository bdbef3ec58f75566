package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/user"
)

type applicationApi struct {
	svc    *application.Service
	usrSvc *user.Service
}

func registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *application.Service, usrSvc *user.Service) {
	api := applicationApi{svc: svc, usrSvc: usrSvc}

	ag := g.Group("/applications", jwt, ctxUserMiddleware(usrSvc))
	ag.GET("", api.query)
	ag.POST("", api.submit, roleMiddleware(user.RoleStudent))
	ag.POST("/reset", api.reset, roleMiddleware(user.RoleStudent))
	ag.GET("/stats", api.stats, adminMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
	ag.POST("/:id/approve", api.approve, roleMiddleware(user.RoleAdmin, user.RoleTeacher))
	ag.POST("/:id/reject", api.reject, roleMiddleware(user.RoleAdmin, user.RoleTeacher))
}

func (api *applicationApi) query(ctx echo.Context) error {
	filter := new(application.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []application.Application{})
	}
	ids, err := scopeStudentIDs(ctx, api.usrSvc, filter.StudentIDs)
	if err != nil {
		return err
	}
	filter.StudentIDs = ids

	apps, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *applicationApi) submit(ctx echo.Context) error {
	var data application.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	app, err := api.svc.Submit(ctx.Request().Context(), mustContextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting application")
	}
	return ctx.JSON(http.StatusCreated, app)
}

// reset lets a rejected student apply again.
func (api *applicationApi) reset(ctx echo.Context) error {
	usr, err := api.svc.Reset(ctx.Request().Context(), mustContextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "resetting application status")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *applicationApi) approve(ctx echo.Context) error {
	app, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"), mustContextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "approving application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) reject(ctx echo.Context) error {
	app, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"), mustContextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "rejecting application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing application stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *applicationApi) destroyMultiple(ctx echo.Context) error {
	if ids := bindIDs(ctx); len(ids) > 0 {
		if err := api.svc.Delete(ctx.Request().Context(), ids...); err != nil {
			return errors.Wrap(err, "deleting applications")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}
