package application_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/apps/shared"
	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/user"
	sqliterepos "github.com/smkremaja/pkl/storage/database/sqlite"
	"github.com/smkremaja/pkl/tests"
)

func newApplication(company string) application.NewApplication {
	return application.NewApplication{
		CompanyName:    company,
		CompanyAddress: "Jl. Pluit Raya, Jakarta",
		Position:       "Teknisi Jaringan",
		StartDate:      core.NewDate(2024, 7, 1),
		EndDate:        core.NewDate(2024, 12, 31),
	}
}

func student(t *testing.T, svcs *shared.Services, id string) user.User {
	usr, err := svcs.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return usr
}

func TestService_lifecycle(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	teacher := testutil.CreateTeacher(t, repo, "Budi Santoso", "1985")
	other := testutil.CreateTeacher(t, repo, "Sri Lestari", "1986")
	admin := testutil.CreateAdmin(t, repo, "Administrator", "admin")
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", teacher.ID)

	na := newApplication("PT Maju Jaya")
	na.EndDate = core.NewDate(2024, 6, 1)
	_, err := svcs.Applications.Submit(ctx, ani.ID, na)
	assert.True(t, core.IsValidationError(err), "the period must not end before it starts")

	app, err := svcs.Applications.Submit(ctx, ani.ID, newApplication("PT Maju Jaya"))
	require.NoError(t, err)
	assert.Equal(t, application.StatusPending, app.Status)
	assert.Equal(t, user.StatusPending, student(t, svcs, ani.ID).ApplicationStatus)

	_, err = svcs.Applications.Submit(ctx, ani.ID, newApplication("CV Sinar"))
	assert.Equal(t, application.ErrInProgress, err)

	_, err = svcs.Applications.Reject(ctx, app.ID, other)
	assert.Equal(t, application.ErrNotSupervisedUser, err)

	app, err = svcs.Applications.Reject(ctx, app.ID, teacher)
	require.NoError(t, err)
	assert.Equal(t, application.StatusRejected, app.Status)
	assert.Equal(t, user.StatusRejected, student(t, svcs, ani.ID).ApplicationStatus)

	_, err = svcs.Applications.Approve(ctx, app.ID, admin)
	assert.Equal(t, application.ErrNotPending, err)

	// a rejected student may apply again right away, or be reset first
	usr, err := svcs.Applications.Reset(ctx, ani.ID)
	require.NoError(t, err)
	assert.Equal(t, user.StatusNone, usr.ApplicationStatus)
	_, err = svcs.Applications.Reset(ctx, ani.ID)
	assert.Equal(t, application.ErrNotRejected, err)

	second, err := svcs.Applications.Submit(ctx, ani.ID, newApplication("CV Sinar"))
	require.NoError(t, err)
	_, err = svcs.Applications.Approve(ctx, second.ID, admin)
	require.NoError(t, err)

	placed := student(t, svcs, ani.ID)
	assert.Equal(t, user.StatusApproved, placed.ApplicationStatus)
	assert.Equal(t, "CV Sinar", placed.InternshipLocation)
	assert.Equal(t, core.NewDate(2024, 7, 1), placed.InternshipStartDate)
	assert.Equal(t, core.NewDate(2024, 12, 31), placed.InternshipEndDate)

	_, err = svcs.Applications.Submit(ctx, ani.ID, newApplication("PT Lain"))
	assert.Equal(t, application.ErrInProgress, err)

	stats, err := svcs.Applications.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.Stats{Total: 2, Approved: 1, Rejected: 1}, stats)

	_, err = svcs.Applications.Submit(ctx, teacher.ID, newApplication("PT Maju Jaya"))
	assert.Equal(t, user.ErrNotStudent, errors.Cause(err))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", "")
	dodi := testutil.CreateStudent(t, repo, "Dodi Pratama", "0052", "XII RPL 1", "")
	admin := testutil.CreateAdmin(t, repo, "Administrator", "admin")

	pending, err := svcs.Applications.Submit(ctx, ani.ID, newApplication("PT Maju Jaya"))
	require.NoError(t, err)
	approved, err := svcs.Applications.Submit(ctx, dodi.ID, newApplication("CV Sinar"))
	require.NoError(t, err)
	_, err = svcs.Applications.Approve(ctx, approved.ID, admin)
	require.NoError(t, err)

	require.NoError(t, svcs.Applications.Delete(ctx, pending.ID, approved.ID))
	assert.Equal(t, user.StatusNone, student(t, svcs, ani.ID).ApplicationStatus, "removing a pending application resets its student")
	assert.Equal(t, user.StatusApproved, student(t, svcs, dodi.ID).ApplicationStatus)

	apps, err := svcs.Applications.Query(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, apps)

	err = svcs.Applications.Delete(ctx, "missing")
	assert.Equal(t, application.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", "")
	dodi := testutil.CreateStudent(t, repo, "Dodi Pratama", "0052", "XII RPL 1", "")
	admin := testutil.CreateAdmin(t, repo, "Administrator", "admin")

	a1, err := svcs.Applications.Submit(ctx, ani.ID, newApplication("PT Maju Jaya"))
	require.NoError(t, err)
	na := newApplication("CV Sinar")
	na.CompanyAddress = "Bekasi"
	a2, err := svcs.Applications.Submit(ctx, dodi.ID, na)
	require.NoError(t, err)
	a2, err = svcs.Applications.Approve(ctx, a2.ID, admin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter *application.QueryFilter
		want   []string
	}{
		{name: "all", want: []string{a1.ID, a2.ID}},
		{name: "student name", filter: &application.QueryFilter{Search: "PRATAMA"}, want: []string{a2.ID}},
		{name: "company", filter: &application.QueryFilter{Search: "maju"}, want: []string{a1.ID}},
		{name: "address", filter: &application.QueryFilter{Search: "bekasi"}, want: []string{a2.ID}},
		{name: "status", filter: &application.QueryFilter{Status: " Pending "}, want: []string{a1.ID}},
		{name: "student", filter: &application.QueryFilter{StudentIDs: []string{dodi.ID}}, want: []string{a2.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps, err := svcs.Applications.Query(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(apps))
			for _, a := range apps {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
