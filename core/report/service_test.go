package report_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/report"
	sqliterepos "github.com/smkremaja/pkl/storage/database/sqlite"
	"github.com/smkremaja/pkl/tests"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	db, svcs, _ := testutil.Setup(t)
	repo := sqliterepos.NewUserRepository(db)
	ani := testutil.CreateStudent(t, repo, "Ani Wijaya", "0051", "XII RPL 1", "")
	dodi := testutil.CreateStudent(t, repo, "Dodi Pratama", "0052", "XII RPL 1", "")

	_, err := svcs.Reports.Save(ctx, ani.ID, report.SaveReport{Date: core.NewDate(2024, 2, 1), Activities: "  "})
	assert.Error(t, err, "activities are required")

	first, err := svcs.Reports.Save(ctx, ani.ID, report.SaveReport{Date: core.NewDate(2024, 2, 1), Activities: "Instalasi jaringan"})
	require.NoError(t, err)
	latest, err := svcs.Reports.Save(ctx, ani.ID, report.SaveReport{Date: core.NewDate(2024, 2, 3), Activities: "Konfigurasi router", Notes: "lembur"})
	require.NoError(t, err)
	middle, err := svcs.Reports.Save(ctx, ani.ID, report.SaveReport{Date: core.NewDate(2024, 2, 2), Activities: "Dokumentasi"})
	require.NoError(t, err)
	other, err := svcs.Reports.Save(ctx, dodi.ID, report.SaveReport{Date: core.NewDate(2024, 2, 1), Activities: "Servis komputer"})
	require.NoError(t, err)

	t.Run("edit", func(t *testing.T) {
		edited, err := svcs.Reports.Save(ctx, ani.ID, report.SaveReport{ID: first.ID, Date: first.Date, Activities: "Instalasi jaringan kantor"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, edited.ID)

		_, err = svcs.Reports.Save(ctx, dodi.ID, report.SaveReport{ID: first.ID, Date: first.Date, Activities: "bukan punyaku"})
		assert.Equal(t, report.ErrNotFound, err, "only the owner may edit")
	})

	t.Run("newest first", func(t *testing.T) {
		reports, err := svcs.Reports.ListForStudent(ctx, ani.ID)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		assert.Equal(t, []string{latest.ID, middle.ID, first.ID}, []string{reports[0].ID, reports[1].ID, reports[2].ID})
	})

	t.Run("query", func(t *testing.T) {
		reports, err := svcs.Reports.Query(ctx, &report.QueryFilter{Search: "LEMBUR"})
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, latest.ID, reports[0].ID)

		reports, err = svcs.Reports.Query(ctx, &report.QueryFilter{From: core.NewDate(2024, 2, 1), To: core.NewDate(2024, 2, 1)})
		require.NoError(t, err)
		assert.Len(t, reports, 2)
	})

	t.Run("delete", func(t *testing.T) {
		err := svcs.Reports.Delete(ctx, ani.ID, other.ID)
		assert.Equal(t, report.ErrNotFound, err, "students only delete their own reports")

		require.NoError(t, svcs.Reports.Delete(ctx, "", other.ID, middle.ID))
		reports, err := svcs.Reports.Query(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, reports, 2)
	})
}
