package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/user"
)

type reportApi struct {
	svc    *report.Service
	usrSvc *user.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service, usrSvc *user.Service) {
	api := reportApi{svc: svc, usrSvc: usrSvc}

	rg := g.Group("/reports", jwt, ctxUserMiddleware(usrSvc))
	rg.GET("", api.query)
	rg.GET("/:id", api.retrieve)
	rg.POST("", api.save, roleMiddleware(user.RoleStudent))
	rg.DELETE("", api.destroyMultiple, roleMiddleware(user.RoleStudent, user.RoleAdmin))
}

func (api *reportApi) query(ctx echo.Context) error {
	if ctxUsr := mustContextUser(ctx); ctxUsr.IsStudent() {
		reports, err := api.svc.ListForStudent(ctx.Request().Context(), ctxUsr.ID)
		if err != nil {
			return errors.Wrap(err, "listing reports")
		}
		return ctx.JSON(http.StatusOK, reports)
	}

	filter := new(report.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []report.Report{})
	}
	ids, err := scopeStudentIDs(ctx, api.usrSvc, filter.StudentIDs)
	if err != nil {
		return err
	}
	filter.StudentIDs = ids

	reports, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	rep, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting report")
	}
	ids, err := scopeStudentIDs(ctx, api.usrSvc, []string{rep.StudentID})
	if err != nil {
		return err
	}
	if ids[0] != rep.StudentID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, rep)
}

// save creates a report, or edits the student's report when an ID is given.
func (api *reportApi) save(ctx echo.Context) error {
	var data report.SaveReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveReport")
	}
	rep, err := api.svc.Save(ctx.Request().Context(), mustContextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "saving report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) destroyMultiple(ctx echo.Context) error {
	ids := bindIDs(ctx)
	if len(ids) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	var owner string
	if ctxUsr := mustContextUser(ctx); ctxUsr.IsStudent() {
		owner = ctxUsr.ID
	}
	if err := api.svc.Delete(ctx.Request().Context(), owner, ids...); err != nil {
		return errors.Wrap(err, "deleting reports")
	}
	return ctx.NoContent(http.StatusNoContent)
}
