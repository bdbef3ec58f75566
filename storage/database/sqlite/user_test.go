package sqliterepos_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core/user"
	sqliterepos "github.com/smkremaja/pkl/storage/database/sqlite"
	"github.com/smkremaja/pkl/tests"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqliterepos.NewUserRepository(testutil.PrepareDB(t))

	teacher := testutil.CreateTeacher(t, repo, "Budi Santoso", "198512102010011002")
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051237584", "XII RPL 1", teacher.ID)
	dodi := testutil.CreateStudent(t, repo, "Dodi Pratama", "0051237585", "XII TKJ 1", "")
	admin := testutil.CreateAdmin(t, repo, "Administrator", "admin")

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{ID: ani.ID})
		require.NoError(t, err)
		assert.Equal(t, ani.Username, got.Username)
		assert.Equal(t, user.StatusNone, got.ApplicationStatus)

		got, err = repo.GetUser(ctx, user.GetFilter{Username: "admin"})
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)

		_, err = repo.GetUser(ctx, user.GetFilter{ID: "missing"})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUser(ctx, user.GetFilter{})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("username uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "admin", nil))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "admin", []string{admin.ID}))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "nobody", nil))
	})

	t.Run("query", func(t *testing.T) {
		ids := func(users []user.User) []string {
			res := make([]string, 0, len(users))
			for _, u := range users {
				res = append(res, u.ID)
			}
			return res
		}
		tests := []struct {
			name   string
			filter *user.QueryFilter
			want   []string
		}{
			{name: "all", want: []string{teacher.ID, ani.ID, dodi.ID, admin.ID}},
			{name: "role", filter: &user.QueryFilter{Role: user.RoleStudent}, want: []string{ani.ID, dodi.ID}},
			{name: "class", filter: &user.QueryFilter{Class: "XII TKJ 1"}, want: []string{dodi.ID}},
			{name: "teacher", filter: &user.QueryFilter{TeacherID: teacher.ID}, want: []string{ani.ID}},
			{name: "search name, case-insensitive", filter: &user.QueryFilter{Search: "wIJaya"}, want: []string{ani.ID}},
			{name: "search nisn", filter: &user.QueryFilter{Search: "237585"}, want: []string{dodi.ID}},
			{name: "search nip", filter: &user.QueryFilter{Search: "19851210"}, want: []string{teacher.ID}},
			{name: "status", filter: &user.QueryFilter{ApplicationStatus: user.StatusNone}, want: []string{ani.ID, dodi.ID}},
			{name: "no match", filter: &user.QueryFilter{Search: "zzz"}, want: []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.QueryUsers(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(got))
			})
		}
	})

	t.Run("update & delete", func(t *testing.T) {
		dodi.InternshipLocation = "PT Maju Jaya"
		dodi.ApplicationStatus = user.StatusApproved
		_, err := repo.UpdateUser(ctx, dodi)
		require.NoError(t, err)
		got, err := repo.GetUser(ctx, user.GetFilter{ID: dodi.ID})
		require.NoError(t, err)
		assert.Equal(t, "PT Maju Jaya", got.InternshipLocation)

		_, err = repo.UpdateUser(ctx, user.User{ID: "missing", Role: user.RoleAdmin})
		assert.Equal(t, user.ErrNotFound, err)

		require.NoError(t, repo.DeleteUsersByID(ctx, []string{dodi.ID, admin.ID}))
		count, err := repo.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
