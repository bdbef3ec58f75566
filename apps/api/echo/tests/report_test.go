package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/tests"
)

func Test_reportApi(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAdmin(t, usrRepo, "Administrator", "admin")
	budi := testutil.CreateTeacher(t, usrRepo, "Budi Santoso", "1985")
	ani := testutil.CreateStudent(t, usrRepo, "Ani Wijaya", "0051", "XII RPL 1", budi.ID)
	dodi := testutil.CreateStudent(t, usrRepo, "Dodi Pratama", "0052", "XII RPL 1", "")
	aniToken, dodiToken, adminToken := getToken(t, ani), getToken(t, dodi), getToken(t, admin)

	save := func(token, body string) report.Report {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/reports", token, []byte(body))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var rep report.Report
		decode(t, rec, &rep)
		return rep
	}
	r1 := save(aniToken, `{"date": "2024-03-04", "activities": "Instalasi jaringan kantor"}`)
	r2 := save(aniToken, `{"date": "2024-03-05", "activities": "Konfigurasi router", "notes": "lembur"}`)
	d1 := save(dodiToken, `{"date": "2024-03-04", "activities": "Desain poster"}`)

	// editing keeps the identity
	r1 = save(aniToken, fmt.Sprintf(`{"id": %q, "date": "2024-03-04", "activities": "Instalasi jaringan lab"}`, r1.ID))
	assert.Equal(t, "Instalasi jaringan lab", r1.Activities)

	tests := []httpTest{
		{
			name: "teachers cannot write", method: http.MethodPost, path: "/v1/reports", token: getToken(t, budi),
			body: []byte(`{"date": "2024-03-04", "activities": "x"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "others cannot edit", method: http.MethodPost, path: "/v1/reports", token: dodiToken,
			body: []byte(fmt.Sprintf(`{"id": %q, "date": "2024-03-04", "activities": "x"}`, r2.ID)), wantCode: http.StatusNotFound,
		},
		{name: "student, newest first", path: "/v1/reports", token: aniToken, wantData: marchallList(t, r2, r1)},
		{name: "teacher", path: "/v1/reports", token: getToken(t, budi), wantData: marchallList(t, r1, r2)},
		{name: "admin search", path: "/v1/reports?search=POSTER", token: adminToken, wantData: marchallList(t, d1)},
		{name: "detail", path: "/v1/reports/" + r2.ID, token: getToken(t, budi), wantData: marchallObj(t, r2)},
		{
			name: "detail of unsupervised", path: "/v1/reports/" + d1.ID, token: getToken(t, budi),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "delete others'", method: http.MethodDelete, path: "/v1/reports?id=" + r2.ID, token: dodiToken, wantCode: http.StatusNotFound},
		{name: "delete own", method: http.MethodDelete, path: "/v1/reports?id=" + r2.ID, token: aniToken, wantCode: http.StatusNoContent},
		{name: "admin delete", method: http.MethodDelete, path: "/v1/reports?id=" + d1.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "remaining", path: "/v1/reports", token: adminToken, wantData: marchallList(t, r1)},
	}
	runHTTPTests(t, app, tests)
}
