package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/tests"
)

func Test_attendanceApi_checkIn(t *testing.T) {
	app := setup(t)
	defer func() { core.NowFunc = time.Now }()

	admin := testutil.CreateAdmin(t, usrRepo, "Administrator", "admin")
	ani := testutil.CreateStudent(t, usrRepo, "Ani Wijaya", "0051", "XII RPL 1", "")
	token := getToken(t, ani)

	core.NowFunc = func() time.Time { return time.Date(2024, 3, 4, 7, 15, 0, 0, conf.Location) }

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendances/today", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/attendances/check-in", getToken(t, admin), []byte(`{}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/attendances/check-in", token, []byte(`{}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var att attendance.Attendance
	decode(t, rec, &att)
	assert.Equal(t, attendance.StatusPresent, att.Status)
	assert.Equal(t, "2024-03-04", att.Date.String())
	assert.Equal(t, "07:15", att.CheckInTime)
	assert.Empty(t, att.CheckOutTime)

	core.NowFunc = func() time.Time { return time.Date(2024, 3, 4, 15, 30, 0, 0, conf.Location) }
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendances/check-in", token, []byte(`{"notes": "pulang"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &att)
	assert.Equal(t, "15:30", att.CheckOutTime)
	assert.Equal(t, "pulang", att.Notes)

	req, rec = newAuthRequest(http.MethodPost, "/v1/attendances/check-in", token, []byte(`{}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: attendance.ErrAlreadyCheckedOut.Error()}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendances/today", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, att)}, rec)
}

func Test_attendanceApi_query(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAdmin(t, usrRepo, "Administrator", "admin")
	budi := testutil.CreateTeacher(t, usrRepo, "Budi Santoso", "1985")
	ani := testutil.CreateStudent(t, usrRepo, "Ani Wijaya", "0051", "XII RPL 1", budi.ID)
	dodi := testutil.CreateStudent(t, usrRepo, "Dodi Pratama", "0052", "XII RPL 1", "")
	adminToken := getToken(t, admin)

	save := func(studentID, date, status string) attendance.Attendance {
		t.Helper()
		body := []byte(fmt.Sprintf(`{"student_id": %q, "date": %q, "status": %q}`, studentID, date, status))
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendances", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var att attendance.Attendance
		decode(t, rec, &att)
		return att
	}
	a1 := save(ani.ID, "2024-03-04", "present")
	a2 := save(ani.ID, "2024-03-05", "sick")
	d1 := save(dodi.ID, "2024-03-04", "late")
	// same day overwrites
	a2 = save(ani.ID, "2024-03-05", "absent")

	tests := []httpTest{
		{name: "admin", path: "/v1/attendances", token: adminToken, wantData: marchallList(t, a1, a2, d1)},
		{name: "by student", path: "/v1/attendances?student_id=" + dodi.ID, token: adminToken, wantData: marchallList(t, d1)},
		{name: "by status", path: "/v1/attendances?status=ABSENT", token: adminToken, wantData: marchallList(t, a2)},
		{name: "by range", path: "/v1/attendances?from=2024-03-05&to=2024-03-31", token: adminToken, wantData: marchallList(t, a2)},
		{name: "student sees own", path: "/v1/attendances", token: getToken(t, dodi), wantData: marchallList(t, d1)},
		{
			name: "student cannot widen", path: "/v1/attendances?student_id=" + ani.ID, token: getToken(t, dodi),
			wantData: marchallList(t, d1),
		},
		{name: "teacher sees supervised", path: "/v1/attendances", token: getToken(t, budi), wantData: marchallList(t, a1, a2)},
		{
			name: "teacher filters out others", path: "/v1/attendances?student_id=" + dodi.ID, token: getToken(t, budi),
			wantData: []byte(`[]`),
		},
		{
			name: "month", path: "/v1/attendances/month?year=2024&month=3&student_id=" + ani.ID, token: adminToken,
			wantData: marchallList(t, a1, a2),
		},
		{
			name: "invalid month", path: "/v1/attendances/month?year=2024&month=13", token: getToken(t, ani),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"month": "must be between 1 and 12"}),
		},
		{
			name: "month of unsupervised student", path: "/v1/attendances/month?year=2024&month=3&student_id=" + dodi.ID,
			token: getToken(t, budi), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_attendanceApi_updateAndDelete(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAdmin(t, usrRepo, "Administrator", "admin")
	ani := testutil.CreateStudent(t, usrRepo, "Ani Wijaya", "0051", "XII RPL 1", "")
	adminToken := getToken(t, admin)

	att, err := svcs.Attendances.Save(context.Background(), attendance.NewAttendance{
		StudentID: ani.ID, Date: core.NewDate(2024, 3, 4), Status: attendance.StatusPresent, CheckInTime: "07:00",
	})
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "students cannot edit", method: http.MethodPut, path: "/v1/attendances/" + att.ID, token: getToken(t, ani),
			body: []byte(`{"status": "late"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid status", method: http.MethodPut, path: "/v1/attendances/" + att.ID, token: adminToken,
			body: []byte(`{"status": "bolos"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "invalid time", method: http.MethodPut, path: "/v1/attendances/" + att.ID, token: adminToken,
			body: []byte(`{"status": "late", "check_in_time": "25:00"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown", method: http.MethodPut, path: "/v1/attendances/missing", token: adminToken,
			body: []byte(`{"status": "late"}`), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: attendance.ErrNotFound.Error()}),
		},
		{
			name: "valid", method: http.MethodPut, path: "/v1/attendances/" + att.ID, token: adminToken,
			body: []byte(`{"status": "late", "check_in_time": "08:10"}`),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/attendances?id=" + att.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", path: "/v1/attendances", token: adminToken, wantData: []byte(`[]`)},
	}
	runHTTPTests(t, app, tests)
}
