package recap

import (
	"fmt"
	"strings"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
)

const (
	placeholder = "-"
	unknown     = "Unknown"
)

// Sheet is one worksheet: a header row followed by data rows of the same width.
type Sheet struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

var (
	attendanceHeaders  = []string{"Tanggal", "Nama", "NISN", "Kelas", "Status", "Jam Masuk", "Jam Pulang", "Catatan"}
	reportHeaders      = []string{"Tanggal", "Nama", "NISN", "Kelas", "Kegiatan", "Catatan"}
	visitHeaders       = []string{"Tanggal", "Guru", "Jenis Kunjungan", "Lokasi", "Siswa yang Dikunjungi", "Catatan", "Tindak Lanjut", "Catatan Tindak Lanjut"}
	studentHeaders     = []string{"NISN", "Nama", "Kelas", "Status PKL"}
	teacherHeaders     = []string{"NIP", "Nama", "Mata Pelajaran"}
	guidanceHeaders    = []string{"NISN", "Nama Siswa", "Kelas", "Guru Pembimbing", "Status PKL", "Lokasi PKL"}
	applicationHeaders = []string{"Nama Siswa", "Kelas", "Perusahaan", "Alamat", "Posisi", "Tanggal Mulai", "Tanggal Selesai", "Tanggal Pengajuan", "Status", "Catatan"}

	attendanceLabels = map[string]string{
		attendance.StatusPresent: "Hadir",
		attendance.StatusAbsent:  "Tidak Hadir",
		attendance.StatusLate:    "Terlambat",
		attendance.StatusSick:    "Sakit",
		attendance.StatusHoliday: "Libur",
	}
)

// AttendanceLabel translates an attendance status for display.
func AttendanceLabel(status string) string {
	if lbl, ok := attendanceLabels[status]; ok {
		return lbl
	}
	return unknown
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

// studentCells resolves the name, NISN and class of a student, or Unknown placeholders.
func studentCells(roster map[string]user.User, id string) (name, nisn, class string) {
	student, ok := roster[id]
	if !ok {
		return unknown, unknown, unknown
	}
	return orUnknown(student.Name), orUnknown(student.NISN), orUnknown(student.Class)
}

func AttendanceSheet(records []attendance.Attendance, roster map[string]user.User) Sheet {
	rows := make([][]string, 0, len(records))
	for _, att := range records {
		name, nisn, class := studentCells(roster, att.StudentID)
		rows = append(rows, []string{
			att.Date.LocaleString(),
			name,
			nisn,
			class,
			AttendanceLabel(att.Status),
			orPlaceholder(att.CheckInTime),
			orPlaceholder(att.CheckOutTime),
			orPlaceholder(att.Notes),
		})
	}
	return Sheet{Name: "Attendance", Headers: attendanceHeaders, Rows: rows}
}

func ReportSheet(reports []report.Report, roster map[string]user.User) Sheet {
	rows := make([][]string, 0, len(reports))
	for _, rep := range reports {
		name, nisn, class := studentCells(roster, rep.StudentID)
		rows = append(rows, []string{
			rep.Date.LocaleString(),
			name,
			nisn,
			class,
			rep.Activities,
			orPlaceholder(rep.Notes),
		})
	}
	return Sheet{Name: "Reports", Headers: reportHeaders, Rows: rows}
}

// visitStudentNames lists the names of the visited students found in users.
func visitStudentNames(v visit.Visit, users map[string]user.User) []string {
	names := make([]string, 0, len(v.StudentIDs))
	for _, id := range v.StudentIDs {
		if s, ok := users[id]; ok {
			names = append(names, s.Name)
		}
	}
	return names
}

func teacherName(users map[string]user.User, id string) string {
	if t, ok := users[id]; ok {
		return orUnknown(t.Name)
	}
	return unknown
}

// VisitSheet projects visits; users must hold both the teachers and the students.
func VisitSheet(visits []visit.Visit, users map[string]user.User) Sheet {
	rows := make([][]string, 0, len(visits))
	for _, v := range visits {
		followUp := "Tidak"
		if v.FollowUp {
			followUp = "Ya"
		}
		rows = append(rows, []string{
			v.Date.LocaleString(),
			teacherName(users, v.TeacherID),
			visit.TypeLabel(v.Type),
			v.Location,
			orPlaceholder(strings.Join(visitStudentNames(v, users), ", ")),
			orPlaceholder(v.Notes),
			followUp,
			orPlaceholder(v.FollowUpNotes),
		})
	}
	return Sheet{Name: "Monitoring", Headers: visitHeaders, Rows: rows}
}

func StudentSheet(students []user.User) Sheet {
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{s.NISN, s.Name, s.Class, user.StatusLabel(s.ApplicationStatus)})
	}
	return Sheet{Name: "Students", Headers: studentHeaders, Rows: rows}
}

func TeacherSheet(teachers []user.User) Sheet {
	rows := make([][]string, 0, len(teachers))
	for _, t := range teachers {
		rows = append(rows, []string{t.NIP, t.Name, orPlaceholder(t.Subject)})
	}
	return Sheet{Name: "Teachers", Headers: teacherHeaders, Rows: rows}
}

func supervisorName(teachers map[string]user.User, id string) string {
	if t, ok := teachers[id]; ok && id != "" {
		return t.Name
	}
	return "Belum ditugaskan"
}

// GuidanceSheet lists the students with their supervising teacher, looked up in teachers.
func GuidanceSheet(students []user.User, teachers map[string]user.User) Sheet {
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{
			s.NISN,
			s.Name,
			s.Class,
			supervisorName(teachers, s.TeacherID),
			user.StatusLabel(s.ApplicationStatus),
			orPlaceholder(s.InternshipLocation),
		})
	}
	return Sheet{Name: "Students", Headers: guidanceHeaders, Rows: rows}
}

func ApplicationSheet(apps []application.Application, roster map[string]user.User) Sheet {
	rows := make([][]string, 0, len(apps))
	for _, app := range apps {
		name, class := unknown, unknown
		if s, ok := roster[app.StudentID]; ok {
			name, class = orUnknown(s.Name), orUnknown(s.Class)
		}
		rows = append(rows, []string{
			name,
			class,
			app.CompanyName,
			app.CompanyAddress,
			app.Position,
			app.StartDate.LocaleString(),
			app.EndDate.LocaleString(),
			core.DateOf(app.SubmittedAt).LocaleString(),
			application.StatusLabel(app.Status),
			orPlaceholder(app.Notes),
		})
	}
	return Sheet{Name: "Applications", Headers: applicationHeaders, Rows: rows}
}

// File name stems, without extension.

func AttendanceFileName(r TimeRange, w Window) string {
	return fmt.Sprintf("rekap_absensi_%s_%s_%s", r.Label(), w.Start, w.End)
}

func ReportFileName(r TimeRange, w Window) string {
	return fmt.Sprintf("rekap_laporan_%s_%s_%s", r.Label(), w.Start, w.End)
}

func VisitFileName(r TimeRange, anchor core.Date) string {
	return fmt.Sprintf("rekap_monitoring_guru_%s_%s", r.Label(), anchor)
}

func ApplicationFileName(today core.Date) string {
	return "rekap_pengajuan_pkl_" + today.String()
}

func GuidanceFileName(class string) string {
	if class == "" {
		return "siswa_bimbingan_semua"
	}
	return "siswa_bimbingan_" + strings.ReplaceAll(class, " ", "_")
}

const (
	StudentFileName = "daftar_siswa"
	TeacherFileName = "daftar_guru"
)
