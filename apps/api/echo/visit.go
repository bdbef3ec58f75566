package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
)

type visitApi struct {
	svc *visit.Service
}

func registerVisitAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *visit.Service, usrSvc *user.Service) {
	api := visitApi{svc: svc}

	vg := g.Group("/visits", jwt, ctxUserMiddleware(usrSvc), roleMiddleware(user.RoleAdmin, user.RoleTeacher))
	vg.GET("", api.query)
	vg.GET("/:id", api.retrieve)
	vg.POST("", api.save, roleMiddleware(user.RoleTeacher))
	vg.DELETE("", api.destroyMultiple, adminMiddleware())
}

// query lists visits; teachers only see their own.
func (api *visitApi) query(ctx echo.Context) error {
	filter := new(visit.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []visit.Visit{})
	}
	if ctxUsr := mustContextUser(ctx); ctxUsr.IsTeacher() {
		filter.TeacherID = ctxUsr.ID
	}

	visits, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying visits")
	}
	return ctx.JSON(http.StatusOK, visits)
}

func (api *visitApi) retrieve(ctx echo.Context) error {
	v, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting visit")
	}
	if ctxUsr := mustContextUser(ctx); ctxUsr.IsTeacher() && v.TeacherID != ctxUsr.ID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, v)
}

// save records the teacher's visit of the day, replacing an earlier one.
func (api *visitApi) save(ctx echo.Context) error {
	var data visit.SaveVisit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveVisit")
	}
	v, err := api.svc.Save(ctx.Request().Context(), mustContextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "saving visit")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *visitApi) destroyMultiple(ctx echo.Context) error {
	if ids := bindIDs(ctx); len(ids) > 0 {
		if err := api.svc.Delete(ctx.Request().Context(), ids...); err != nil {
			return errors.Wrap(err, "deleting visits")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}
