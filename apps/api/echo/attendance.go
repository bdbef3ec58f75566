package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/user"
)

type attendanceApi struct {
	svc    *attendance.Service
	usrSvc *user.Service
	conf   *core.Config
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, usrSvc *user.Service, conf *core.Config) {
	api := attendanceApi{svc: svc, usrSvc: usrSvc, conf: conf}

	ag := g.Group("/attendances", jwt, ctxUserMiddleware(usrSvc))
	ag.GET("", api.query)
	ag.GET("/month", api.month)
	ag.POST("/check-in", api.checkIn, roleMiddleware(user.RoleStudent))
	ag.GET("/today", api.today, roleMiddleware(user.RoleStudent))
	ag.POST("", api.save, adminMiddleware())
	ag.PUT("/:id", api.update, adminMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
}

// scopeStudentIDs restricts requested student IDs to the ones ctxUsr may see.
// Students see themselves; teachers see the students they supervise.
func scopeStudentIDs(ctx echo.Context, usrSvc *user.Service, requested []string) ([]string, error) {
	ctxUsr := mustContextUser(ctx)
	switch {
	case ctxUsr.IsAdmin():
		return requested, nil
	case ctxUsr.IsStudent():
		return []string{ctxUsr.ID}, nil
	}

	students, err := usrSvc.Query(ctx.Request().Context(), &user.QueryFilter{Role: user.RoleStudent, TeacherID: ctxUsr.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying supervised students")
	}
	allowed := make(map[string]bool, len(students))
	ids := make([]string, 0, len(students))
	for _, s := range students {
		allowed[s.ID] = true
		ids = append(ids, s.ID)
	}
	if len(requested) == 0 {
		if len(ids) == 0 {
			// no students: match nothing
			return []string{""}, nil
		}
		return ids, nil
	}
	scoped := make([]string, 0, len(requested))
	for _, id := range requested {
		if allowed[id] {
			scoped = append(scoped, id)
		}
	}
	if len(scoped) == 0 {
		return []string{""}, nil
	}
	return scoped, nil
}

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data attendance.CheckIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckIn")
	}
	att, err := api.svc.CheckIn(ctx.Request().Context(), mustContextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *attendanceApi) today(ctx echo.Context) error {
	att, err := api.svc.Today(ctx.Request().Context(), mustContextUser(ctx).ID)
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return ctx.NoContent(http.StatusNoContent)
		}
		return errors.Wrap(err, "getting today's attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Attendance{})
	}
	ids, err := scopeStudentIDs(ctx, api.usrSvc, filter.StudentIDs)
	if err != nil {
		return err
	}
	filter.StudentIDs = ids

	atts, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendances")
	}
	return ctx.JSON(http.StatusOK, atts)
}

// month lists a student's attendance of one calendar month, the current one by default.
func (api *attendanceApi) month(ctx echo.Context) error {
	now := core.NowFunc().In(api.conf.Location)
	year, month := now.Year(), now.Month()
	if v := ctx.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "year", Error: "must be a number"})
		}
		year = y
	}
	if v := ctx.QueryParam("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.NewValidationError(err, core.FieldError{Field: "month", Error: "must be between 1 and 12"})
		}
		month = time.Month(m)
	}

	studentID := core.CleanString(ctx.QueryParam("student_id"))
	if ctxUsr := mustContextUser(ctx); ctxUsr.IsStudent() {
		studentID = ctxUsr.ID
	} else {
		ids, err := scopeStudentIDs(ctx, api.usrSvc, []string{studentID})
		if err != nil {
			return err
		}
		if studentID = ids[0]; studentID == "" {
			return errHttpNotFound
		}
	}

	atts, err := api.svc.MonthOf(ctx.Request().Context(), studentID, year, month)
	if err != nil {
		return errors.Wrap(err, "querying month")
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *attendanceApi) save(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	att, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	var data attendance.UpdateAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	att, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *attendanceApi) destroyMultiple(ctx echo.Context) error {
	if ids := bindIDs(ctx); len(ids) > 0 {
		if err := api.svc.Delete(ctx.Request().Context(), ids...); err != nil {
			return errors.Wrap(err, "deleting attendances")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}
