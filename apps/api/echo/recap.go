package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/recap"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/services/document"
	"github.com/smkremaja/pkl/services/spreadsheet"
)

type recapApi struct {
	svc *recap.Service
}

func registerRecapAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *recap.Service, usrSvc *user.Service) {
	api := recapApi{svc: svc}

	rg := g.Group("/recaps", jwt, ctxUserMiddleware(usrSvc))
	rg.GET("/visits", api.visits, roleMiddleware(user.RoleAdmin, user.RoleTeacher))

	// admin exports
	ag := rg.Group("", adminMiddleware())
	ag.GET("/attendances", api.attendances)
	ag.GET("/reports", api.reports)
	ag.GET("/applications", api.applications)
	ag.GET("/students", api.students)
	ag.GET("/teachers", api.teachers)
	ag.GET("/guidance", api.guidance)
}

// send renders rc in the requested format: json records, an xlsx workbook or a pdf document.
func sendRecap(ctx echo.Context, rc recap.Recap) error {
	format, err := bindFormat(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case formatXLSX:
		if err = spreadsheet.Write(&buf, rc.Sheet); err != nil {
			return errors.Wrap(err, "writing spreadsheet")
		}
		return attachment(ctx, rc.Name+spreadsheet.Extension, spreadsheet.ContentType, buf.Bytes())
	case formatPDF:
		doc, err := rc.Document()
		if err != nil {
			return err
		}
		if err = document.Render(&buf, doc); err != nil {
			return errors.Wrap(err, "rendering document")
		}
		return attachment(ctx, rc.Name+document.Extension, document.ContentType, buf.Bytes())
	}
	return ctx.JSON(http.StatusOK, rc)
}

func bindRecapRequest(ctx echo.Context) (recap.Request, error) {
	var req recap.Request
	if err := ctx.Bind(&req); err != nil {
		return recap.Request{}, errors.Wrap(err, "binding to Request")
	}
	return req, nil
}

func (api *recapApi) attendances(ctx echo.Context) error {
	req, err := bindRecapRequest(ctx)
	if err != nil {
		return err
	}
	rc, err := api.svc.Attendances(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "recapping attendances")
	}
	return sendRecap(ctx, rc)
}

func (api *recapApi) reports(ctx echo.Context) error {
	req, err := bindRecapRequest(ctx)
	if err != nil {
		return err
	}
	rc, err := api.svc.Reports(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "recapping reports")
	}
	return sendRecap(ctx, rc)
}

// visits recaps visits; teachers only get their own.
func (api *recapApi) visits(ctx echo.Context) error {
	req, err := bindRecapRequest(ctx)
	if err != nil {
		return err
	}
	if ctxUsr := mustContextUser(ctx); ctxUsr.IsTeacher() {
		req.TeacherID = ctxUsr.ID
	}
	rc, err := api.svc.Visits(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "recapping visits")
	}
	return sendRecap(ctx, rc)
}

func (api *recapApi) applications(ctx echo.Context) error {
	filter := new(application.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	rc, err := api.svc.Applications(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "exporting applications")
	}
	return sendRecap(ctx, rc)
}

func (api *recapApi) students(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	rc, err := api.svc.Students(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "exporting students")
	}
	return sendRecap(ctx, rc)
}

func (api *recapApi) teachers(ctx echo.Context) error {
	rc, err := api.svc.Teachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "exporting teachers")
	}
	return sendRecap(ctx, rc)
}

func (api *recapApi) guidance(ctx echo.Context) error {
	rc, err := api.svc.Guidance(ctx.Request().Context(), core.CleanString(ctx.QueryParam("class")))
	if err != nil {
		return errors.Wrap(err, "exporting guidance list")
	}
	return sendRecap(ctx, rc)
}
