package recap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
)

var testRoster = map[string]user.User{
	"s1": {ID: "s1", Name: "Ani Wijaya", NISN: "0051237584", Class: "XII RPL 1", Role: user.RoleStudent},
}

func TestAttendanceSheet(t *testing.T) {
	t.Run("no records", func(t *testing.T) {
		sheet := AttendanceSheet(nil, testRoster)
		assert.Equal(t, "Attendance", sheet.Name)
		assert.Equal(t, attendanceHeaders, sheet.Headers)
		assert.Empty(t, sheet.Rows)
	})

	t.Run("rows", func(t *testing.T) {
		records := []attendance.Attendance{
			{StudentID: "s1", Date: core.MustParseDate("2024-02-05"), Status: attendance.StatusPresent, CheckInTime: "07:30", CheckOutTime: "15:00", Notes: "tepat waktu"},
			{StudentID: "gone", Date: core.MustParseDate("2024-02-06"), Status: "vacation"},
		}
		sheet := AttendanceSheet(records, testRoster)
		assert.Equal(t, [][]string{
			{"5/2/2024", "Ani Wijaya", "0051237584", "XII RPL 1", "Hadir", "07:30", "15:00", "tepat waktu"},
			{"6/2/2024", "Unknown", "Unknown", "Unknown", "Unknown", "-", "-", "-"},
		}, sheet.Rows)
		for _, row := range sheet.Rows {
			assert.Len(t, row, len(sheet.Headers))
		}
	})
}

func TestReportSheet(t *testing.T) {
	reports := []report.Report{
		{StudentID: "s1", Date: core.MustParseDate("2024-02-05"), Activities: "Instalasi jaringan"},
	}
	sheet := ReportSheet(reports, testRoster)
	assert.Equal(t, "Reports", sheet.Name)
	assert.Equal(t, [][]string{
		{"5/2/2024", "Ani Wijaya", "0051237584", "XII RPL 1", "Instalasi jaringan", "-"},
	}, sheet.Rows)
}

func TestVisitSheet(t *testing.T) {
	users := map[string]user.User{
		"t1": {ID: "t1", Name: "Budi Santoso", Role: user.RoleTeacher},
		"s1": testRoster["s1"],
	}
	visits := []visit.Visit{
		{TeacherID: "t1", Date: core.MustParseDate("2024-02-05"), Type: visit.TypePhysical, Location: "PT Maju", StudentIDs: []string{"s1", "gone"}, FollowUp: true, FollowUpNotes: "cek ulang"},
		{TeacherID: "t9", Date: core.MustParseDate("2024-02-06"), Type: visit.TypePhone, Location: "PT Jaya"},
	}
	sheet := VisitSheet(visits, users)
	assert.Equal(t, "Monitoring", sheet.Name)
	assert.Equal(t, [][]string{
		{"5/2/2024", "Budi Santoso", "Kunjungan Fisik", "PT Maju", "Ani Wijaya", "-", "Ya", "cek ulang"},
		{"6/2/2024", "Unknown", "Telepon", "PT Jaya", "-", "-", "Tidak", "-"},
	}, sheet.Rows)
}

func TestGuidanceSheet(t *testing.T) {
	teachers := map[string]user.User{"t1": {ID: "t1", Name: "Budi Santoso"}}
	students := []user.User{
		{NISN: "1", Name: "Ani", Class: "XII RPL 1", TeacherID: "t1", ApplicationStatus: user.StatusApproved, InternshipLocation: "PT Maju"},
		{NISN: "2", Name: "Citra", Class: "XII RPL 1", ApplicationStatus: user.StatusNone},
	}
	sheet := GuidanceSheet(students, teachers)
	assert.Equal(t, [][]string{
		{"1", "Ani", "XII RPL 1", "Budi Santoso", "Disetujui", "PT Maju"},
		{"2", "Citra", "XII RPL 1", "Belum ditugaskan", "Belum Mengajukan", "-"},
	}, sheet.Rows)
}

func TestApplicationSheet(t *testing.T) {
	apps := []application.Application{{
		StudentID:      "s1",
		CompanyName:    "PT Maju",
		CompanyAddress: "Jakarta",
		Position:       "Teknisi",
		StartDate:      core.MustParseDate("2024-07-01"),
		EndDate:        core.MustParseDate("2024-12-31"),
		Status:         application.StatusPending,
		SubmittedAt:    time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
	}}
	sheet := ApplicationSheet(apps, testRoster)
	assert.Equal(t, [][]string{
		{"Ani Wijaya", "XII RPL 1", "PT Maju", "Jakarta", "Teknisi", "1/7/2024", "31/12/2024", "10/6/2024", "Menunggu", "-"},
	}, sheet.Rows)
}

func TestFileNames(t *testing.T) {
	w := NewWindow(Weekly, core.MustParseDate("2024-02-01"))
	tests := []struct {
		got, want string
	}{
		{AttendanceFileName(Weekly, w), "rekap_absensi_Mingguan_2024-01-28_2024-02-03"},
		{ReportFileName(Weekly, w), "rekap_laporan_Mingguan_2024-01-28_2024-02-03"},
		{VisitFileName(Monthly, core.MustParseDate("2024-02-01")), "rekap_monitoring_guru_Bulanan_2024-02-01"},
		{ApplicationFileName(core.MustParseDate("2024-02-01")), "rekap_pengajuan_pkl_2024-02-01"},
		{GuidanceFileName(""), "siswa_bimbingan_semua"},
		{GuidanceFileName("XII RPL 1"), "siswa_bimbingan_XII_RPL_1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got)
	}
}
