package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
	sqliterepos "github.com/smkremaja/pkl/storage/database/sqlite"
	"github.com/smkremaja/pkl/tests"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "got %T: %v", err, err)
	flds := make(map[string]string)
	for _, f := range vErr.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	teacher := testutil.CreateTeacher(t, repo, "Budi Santoso", "1985")
	admin := testutil.CreateAdmin(t, repo, "Administrator", "admin")

	valid := func(mod func(nu *user.NewUser)) user.NewUser {
		nu := user.NewUser{
			Name:            "Ani Wijaya",
			Username:        " Ani_W ",
			Role:            user.RoleStudent,
			Password:        "Rahasia!2024",
			PasswordConfirm: "Rahasia!2024",
			Class:           "XII RPL 1",
			NISN:            "0051237584",
			TeacherID:       teacher.ID,
		}
		if mod != nil {
			mod(&nu)
		}
		return nu
	}

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr bool
	}{
		{name: "missing class", nu: valid(func(nu *user.NewUser) { nu.Class = "" }), wantErr: true},
		{name: "bad role", nu: valid(func(nu *user.NewUser) { nu.Role = "parent" }), wantErr: true},
		{name: "short password", nu: valid(func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "abc12", "abc12" }), wantErr: true},
		{name: "numeric password", nu: valid(func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "12345678", "12345678" }), wantErr: true},
		{name: "password like name", nu: valid(func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "aniwijaya", "aniwijaya" }), wantErr: true},
		{name: "password mismatch", nu: valid(func(nu *user.NewUser) { nu.PasswordConfirm = "Rahasia!2025" }), wantErr: true},
		{name: "username taken", nu: valid(func(nu *user.NewUser) { nu.Username = "admin" }), wantErr: true},
		{name: "teacher is not a teacher", nu: valid(func(nu *user.NewUser) { nu.TeacherID = admin.ID }), wantErr: true},
		{name: "unknown teacher", nu: valid(func(nu *user.NewUser) { nu.TeacherID = "missing" }), wantErr: true},
		{name: "valid", nu: valid(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svcs.Users.Create(ctx, tt.nu)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ani_w", usr.Username)
			assert.Equal(t, user.StatusNone, usr.ApplicationStatus)
			assert.NoError(t, usr.CheckPassword("Rahasia!2024"))
		})
	}

	t.Run("role fields are cleared", func(t *testing.T) {
		usr, err := svcs.Users.Create(ctx, user.NewUser{
			Name:            "Sri Lestari",
			Username:        "sri",
			Role:            user.RoleTeacher,
			Password:        "Pembimbing#1",
			PasswordConfirm: "Pembimbing#1",
			NIP:             "1986",
			Class:           "XII RPL 1",
		})
		require.NoError(t, err)
		assert.Empty(t, usr.Class)
		assert.Empty(t, usr.ApplicationStatus)
		assert.Equal(t, "1986", usr.NIP)
	})

	t.Run("username error names the field", func(t *testing.T) {
		_, err := svcs.Users.Create(ctx, valid(func(nu *user.NewUser) { nu.Username = "admin" }))
		assert.Contains(t, fieldErrors(t, err), "username")
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	testutil.CreateAdmin(t, sqliterepos.NewUserRepository(db), "Administrator", "admin", "admin123")

	_, err := svcs.Users.Authenticate(ctx, " ADMIN ", "admin123")
	assert.NoError(t, err)
	_, err = svcs.Users.Authenticate(ctx, "admin", "wrong")
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = svcs.Users.Authenticate(ctx, "nobody", "admin123")
	assert.Equal(t, user.ErrInvalidCredentials, err)
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	usr := testutil.CreateAdmin(t, sqliterepos.NewUserRepository(db), "Administrator", "admin", "admin123")

	err := svcs.Users.ChangePassword(ctx, usr.ID, user.ChangePassword{OldPassword: "nope", Password: "Baru!2024x", PasswordConfirm: "Baru!2024x"})
	assert.Contains(t, fieldErrors(t, err), "old_password")

	err = svcs.Users.ChangePassword(ctx, usr.ID, user.ChangePassword{OldPassword: "admin123", Password: "administrator", PasswordConfirm: "administrator"})
	assert.Error(t, err, "too similar to the name")

	require.NoError(t, svcs.Users.ChangePassword(ctx, usr.ID, user.ChangePassword{OldPassword: "admin123", Password: "Baru!2024x", PasswordConfirm: "Baru!2024x"}))
	_, err = svcs.Users.Authenticate(ctx, "admin", "Baru!2024x")
	assert.NoError(t, err)

	require.NoError(t, svcs.Users.ResetPassword(ctx, "admin", "123"))
	_, err = svcs.Users.Authenticate(ctx, "admin", "123")
	assert.NoError(t, err, "resets skip the password policy")
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	teacher := testutil.CreateTeacher(t, repo, "Budi Santoso", "1985")
	student := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", teacher.ID)
	testutil.CreateAdmin(t, repo, "Administrator", "admin")

	empty := ""
	usr, err := svcs.Users.Update(ctx, student.ID, user.UpdateUser{Class: "XII RPL 2", TeacherID: &empty})
	require.NoError(t, err)
	assert.Equal(t, "XII RPL 2", usr.Class)
	assert.Equal(t, "Ani Wijaya", usr.Name, "empty fields are kept")
	assert.Empty(t, usr.TeacherID)

	_, err = svcs.Users.Update(ctx, student.ID, user.UpdateUser{Username: "admin"})
	assert.Contains(t, fieldErrors(t, err), "username")

	_, err = svcs.Users.Update(ctx, "missing", user.UpdateUser{Name: "X"})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_AssignTeacher(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	teacher := testutil.CreateTeacher(t, repo, "Budi Santoso", "1985")
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", "")
	dodi := testutil.CreateStudent(t, repo, "Dodi Pratama", "0052", "XII RPL 1", "")

	require.NoError(t, svcs.Users.AssignTeacher(ctx, teacher.ID, ani.ID, dodi.ID))
	supervised, err := svcs.Users.Query(ctx, &user.QueryFilter{TeacherID: teacher.ID})
	require.NoError(t, err)
	assert.Len(t, supervised, 2)

	err = svcs.Users.AssignTeacher(ctx, teacher.ID, ani.ID, teacher.ID)
	assert.Equal(t, user.ErrNotStudent, err)

	err = svcs.Users.AssignTeacher(ctx, ani.ID, dodi.ID)
	assert.True(t, core.IsValidationError(err))

	require.NoError(t, svcs.Users.AssignTeacher(ctx, "", ani.ID))
	got, err := svcs.Users.GetByID(ctx, ani.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TeacherID)
}

func TestService_Seed(t *testing.T) {
	ctx := context.Background()
	_, svcs, _ := testutil.Setup(t)

	seeded, err := svcs.Users.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = svcs.Users.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, seeded, "seeding only happens on an empty store")

	student, err := svcs.Users.Authenticate(ctx, "student1", "student123")
	require.NoError(t, err)
	teacher, err := svcs.Users.GetByUsername(ctx, "teacher1")
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, student.TeacherID)
	assert.Equal(t, user.StatusNone, student.ApplicationStatus)
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	testutil.CreateStudent(t, sqliterepos.NewUserRepository(db), "Ani Wijaya", "0051", "XII RPL 1", "")

	rows, err := user.ParseImportRows(user.RoleStudent, [][]string{
		{"NISN", "Nama", "Kelas"},
		{"0052", "Dodi Pratama", "XII TKJ 1"},
		{"0051", "Ani Lagi", "XII RPL 1"},
		{"0053", "", "XII TKJ 1"},
		{"", "", ""},
		{"0052", "Dodi Kembar", "XII TKJ 1"},
		{"0054", "Eka Putri", "XII TKJ 2"},
	})
	require.NoError(t, err)

	result, err := svcs.Users.Import(ctx, user.RoleStudent, rows)
	require.NoError(t, err)

	unames := make([]string, 0, len(result.Imported))
	for _, usr := range result.Imported {
		unames = append(unames, usr.Username)
		assert.Equal(t, user.StatusNone, usr.ApplicationStatus)
		assert.Empty(t, usr.TeacherID)
		assert.Equal(t, usr.Username, usr.NISN)
	}
	assert.Equal(t, []string{"0052", "0054"}, unames)
	assert.Equal(t, []user.Rejection{
		{Row: 3, Reason: user.ErrUsernameExists.Error()},
		{Row: 4, Reason: "missing name"},
		{Row: 6, Reason: "duplicate nisn 0052"},
	}, result.Rejected)

	_, err = svcs.Users.Authenticate(ctx, "0054", "student123")
	assert.NoError(t, err, "imported accounts get the default password")

	_, err = svcs.Users.Import(ctx, user.RoleAdmin, rows)
	assert.Error(t, err)
}
