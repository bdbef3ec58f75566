package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core/backup"
	"github.com/smkremaja/pkl/core/chat"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/tests"
)

func Test_backupApi(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateAdmin(t, usrRepo, "Administrator", "admin", "admin123")
	ani := testutil.CreateStudent(t, usrRepo, "Ani Wijaya", "0051", "XII RPL 1", "", "student123")
	token := getToken(t, admin)

	_, err := svcs.Chats.Send(context.Background(), ani.ID, chat.NewMessage{ReceiverID: admin.ID, Message: "Halo"})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/v1/backup", getToken(t, ani))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/backup", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "backup_")
	dump := rec.Body.Bytes()

	var snap backup.Snapshot
	decode(t, rec, &snap)
	assert.Len(t, snap.Users, 2)
	assert.Len(t, snap.Chats, 1)
	assert.Empty(t, snap.Reports)

	tests := []httpTest{
		{
			name: "wrong confirmation", method: http.MethodPost, path: "/v1/backup/wipe", token: token,
			body: []byte(`{"confirmation": "hapus"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"confirmation": backup.ErrWrongConfirmation.Error()}),
		},
		{
			name: "wipe", method: http.MethodPost, path: "/v1/backup/wipe", token: token,
			body:     []byte(`{"confirmation": "HAPUS"}`),
			wantData: marchallObj(t, map[string]string{"success": "All data has been deleted."}),
		},
		// the wiped admin no longer exists
		{name: "token revoked", path: "/v1/backup", token: token, wantCode: http.StatusUnauthorized},
	}
	runHTTPTests(t, app, tests)

	_, err = svcs.Users.GetByUsername(context.Background(), "0051")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	seeded, err := svcs.Users.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	seededToken := getToken(t, seeded)

	req, rec = newUploadRequest(t, "/v1/backup/restore", seededToken, "backup.json", []byte("{not json"))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"backup": "not a valid backup document"}),
	}, rec)

	req, rec = newUploadRequest(t, "/v1/backup/restore", seededToken, "backup.json", dump)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	restored, err := svcs.Users.GetByUsername(context.Background(), "0051")
	require.NoError(t, err)
	assert.Equal(t, ani.ID, restored.ID)
	unread, err := svcs.Chats.Unread(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ani.ID: 1}, unread)

	req, rec = newRequest(http.MethodPost, "/v1/users/login", []byte(`{"username": "0051", "password": "student123"}`))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "restored accounts keep their passwords")
}
