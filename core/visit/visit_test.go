package visit_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
	sqliterepos "github.com/smkremaja/pkl/storage/database/sqlite"
	"github.com/smkremaja/pkl/tests"
)

func TestService_Save(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	budi := testutil.CreateTeacher(t, repo, "Budi Santoso", "1985")
	sri := testutil.CreateTeacher(t, repo, "Sri Lestari", "1986")
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", budi.ID)
	dodi := testutil.CreateStudent(t, repo, "Dodi Pratama", "0052", "XII RPL 1", sri.ID)
	day := core.NewDate(2024, 2, 1)

	tests := []struct {
		name    string
		teacher user.User
		sv      visit.SaveVisit
		wantErr error
	}{
		{name: "bad type", teacher: budi, sv: visit.SaveVisit{Date: day, Type: "email", Location: "PT Maju"}, wantErr: errors.New("validation")},
		{name: "no location", teacher: budi, sv: visit.SaveVisit{Date: day, Type: visit.TypePhysical}, wantErr: errors.New("validation")},
		{name: "not a teacher", teacher: ani, sv: visit.SaveVisit{Date: day, Type: visit.TypePhone, Location: "PT Maju"}, wantErr: user.ErrNotTeacher},
		{name: "other teacher's student", teacher: budi, sv: visit.SaveVisit{Date: day, Type: visit.TypePhone, Location: "PT Maju", StudentIDs: []string{dodi.ID}}, wantErr: errors.New("validation")},
		{name: "unknown student", teacher: budi, sv: visit.SaveVisit{Date: day, Type: visit.TypePhone, Location: "PT Maju", StudentIDs: []string{"missing"}}, wantErr: errors.New("validation")},
		{name: "valid", teacher: budi, sv: visit.SaveVisit{Date: day, Type: " PHYSICAL ", Location: "PT Maju", StudentIDs: []string{ani.ID}, FollowUpNotes: "dropped"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := svcs.Visits.Save(ctx, tt.teacher, tt.sv)
			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, visit.TypePhysical, v.Type)
				assert.Equal(t, budi.ID, v.TeacherID)
				assert.Equal(t, []string{ani.ID}, v.StudentIDs)
				assert.Empty(t, v.FollowUpNotes, "follow-up notes need a follow-up")
			case tt.wantErr == user.ErrNotTeacher:
				assert.Equal(t, tt.wantErr, err)
			default:
				_, invalid := errors.Cause(err).(validator.ValidationErrors)
				assert.True(t, invalid || core.IsValidationError(err), "got %v", err)
			}
		})
	}
}

func TestService_replaceSameDay(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	budi := testutil.CreateTeacher(t, repo, "Budi Santoso", "1985")
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", budi.ID)

	_, err := svcs.Visits.Save(ctx, budi, visit.SaveVisit{Date: core.NewDate(2024, 2, 1), Type: visit.TypePhone, Location: "PT Maju"})
	require.NoError(t, err)
	second, err := svcs.Visits.Save(ctx, budi, visit.SaveVisit{
		Date: core.NewDate(2024, 2, 1), Type: visit.TypeVirtual, Location: "CV Sentosa",
		StudentIDs: []string{ani.ID}, FollowUp: true, FollowUpNotes: "cek laporan",
	})
	require.NoError(t, err)
	_, err = svcs.Visits.Save(ctx, budi, visit.SaveVisit{Date: core.NewDate(2024, 2, 2), Type: visit.TypePhone, Location: "PT Maju"})
	require.NoError(t, err)

	visits, err := svcs.Visits.Query(ctx, &visit.QueryFilter{TeacherID: budi.ID, From: core.NewDate(2024, 2, 1), To: core.NewDate(2024, 2, 1)})
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, second.ID, visits[0].ID)
	assert.Equal(t, "cek laporan", visits[0].FollowUpNotes)

	visits, err = svcs.Visits.Query(ctx, &visit.QueryFilter{Search: "ani"})
	require.NoError(t, err)
	assert.Len(t, visits, 1)

	require.NoError(t, svcs.Visits.Delete(ctx, second.ID))
	_, err = svcs.Visits.GetByID(ctx, second.ID)
	assert.Equal(t, visit.ErrNotFound, errors.Cause(err))
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "Kunjungan Fisik", visit.TypeLabel(visit.TypePhysical))
	assert.Equal(t, "Telepon", visit.TypeLabel(visit.TypePhone))
	assert.Equal(t, "email", visit.TypeLabel("email"))
}
