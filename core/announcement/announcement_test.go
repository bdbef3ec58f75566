package announcement_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/announcement"
	"github.com/smkremaja/pkl/core/user"
	sqliterepos "github.com/smkremaja/pkl/storage/database/sqlite"
	"github.com/smkremaja/pkl/tests"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	admin := testutil.CreateAdmin(t, sqliterepos.NewUserRepository(db), "Administrator", "admin")

	now := time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC)
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = time.Now }()

	seeded, err := svcs.Announcements.Seed(ctx, admin)
	require.NoError(t, err)
	assert.True(t, seeded)
	seeded, err = svcs.Announcements.Seed(ctx, admin)
	require.NoError(t, err)
	assert.False(t, seeded, "seeding runs once")

	tests := []struct {
		name    string
		sa      announcement.SaveAnnouncement
		wantErr bool
	}{
		{name: "no title", sa: announcement.SaveAnnouncement{Content: "isi", ForRoles: []string{user.RoleStudent}}, wantErr: true},
		{name: "no roles", sa: announcement.SaveAnnouncement{Title: "Libur", Content: "isi"}, wantErr: true},
		{name: "unknown role", sa: announcement.SaveAnnouncement{Title: "Libur", Content: "isi", ForRoles: []string{"parent"}}, wantErr: true},
		{name: "valid", sa: announcement.SaveAnnouncement{Title: " Libur ", Content: "Sekolah libur", ForRoles: []string{"TEACHER"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svcs.Announcements.Save(ctx, admin, tt.sa)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Libur", a.Title)
			assert.Equal(t, []string{user.RoleTeacher}, a.ForRoles)
			assert.Equal(t, admin.ID, a.PublishedBy)
			assert.True(t, now.Equal(a.Date))
		})
	}

	all, err := svcs.Announcements.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	forStudents, err := svcs.Announcements.List(ctx, user.RoleStudent)
	require.NoError(t, err)
	require.Len(t, forStudents, 1)
	assert.Equal(t, all[0].ID, forStudents[0].ID)

	t.Run("edit", func(t *testing.T) {
		edited, err := svcs.Announcements.Save(ctx, admin, announcement.SaveAnnouncement{
			ID: all[1].ID, Title: "Libur Nasional", Content: "Sekolah libur", ForRoles: []string{user.RoleStudent},
		})
		require.NoError(t, err)
		assert.True(t, edited.IsFor(user.RoleStudent))

		_, err = svcs.Announcements.Save(ctx, admin, announcement.SaveAnnouncement{
			ID: "missing", Title: "x", Content: "y", ForRoles: []string{user.RoleStudent},
		})
		assert.Equal(t, announcement.ErrNotFound, errors.Cause(err))
	})

	require.NoError(t, svcs.Announcements.Delete(ctx, all[0].ID))
	all, err = svcs.Announcements.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
