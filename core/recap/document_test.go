package recap

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/user"
)

// wordWrapper puts every word on its own line.
type wordWrapper struct{}

func (wordWrapper) Wrap(text string, _ float64) []string { return strings.Fields(text) }

func textsAt(p Page, y float64) []Text {
	var out []Text
	for _, txt := range p.Texts {
		if txt.Y == y {
			out = append(out, txt)
		}
	}
	return out
}

func TestRender_noBlocks(t *testing.T) {
	doc := Render("Rekap", attendanceColumns, nil, DefaultLayout(), wordWrapper{})
	require.Len(t, doc.Pages, 1)
	p := doc.Pages[0]
	assert.Equal(t, Text{X: 20, Y: 20, Size: 16, Value: "Rekap"}, p.Texts[0])
	assert.Len(t, textsAt(p, 40), len(attendanceColumns))
	assert.Equal(t, []Text{{X: 20, Y: 50, Size: 12, Value: noData}}, textsAt(p, 50))
}

func TestAttendanceDocument_pagination(t *testing.T) {
	records := make([]attendance.Attendance, 40)
	start := core.MustParseDate("2024-02-01")
	for i := range records {
		records[i] = attendance.Attendance{StudentID: "s1", Date: start.AddDays(i % 28), Status: attendance.StatusPresent}
	}
	w := NewWindow(Monthly, start)

	doc := AttendanceDocument(records, testRoster, Monthly, w, wordWrapper{})
	assert.Equal(t, "Rekap Absensi Bulanan: 2024-02-01 s/d 2024-02-29", doc.Title)
	require.Len(t, doc.Pages, 2)

	first, second := doc.Pages[0], doc.Pages[1]
	// title, headers, 25 rows of 5 cells
	assert.Len(t, first.Texts, 1+5+25*5)
	assert.Len(t, textsAt(first, 266), 5) // 25th row
	assert.Empty(t, textsAt(first, 275))

	// headers repeated, then rows 26 to 40
	assert.Len(t, second.Texts, 5+15*5)
	headers := textsAt(second, 30)
	require.Len(t, headers, 5)
	for i, col := range attendanceColumns {
		assert.Equal(t, col.Header, headers[i].Value)
		assert.Equal(t, col.X, headers[i].X)
	}
	row26 := textsAt(second, 40)
	require.Len(t, row26, 5)
	assert.Equal(t, records[25].Date.LocaleString(), row26[0].Value)
}

func TestReportDocument_wrapsAcrossPages(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i+1)
	}
	reports := []report.Report{{
		StudentID:  "s1",
		Date:       core.MustParseDate("2024-02-05"),
		Activities: strings.Join(words, " "),
	}}
	w := NewWindow(Daily, core.MustParseDate("2024-02-05"))

	doc := ReportDocument(reports, testRoster, Daily, w, wordWrapper{})
	require.Len(t, doc.Pages, 2)
	first, second := doc.Pages[0], doc.Pages[1]

	assert.Len(t, textsAt(first, 50), 4) // row
	assert.Equal(t, []Text{{X: 20, Y: 59, Size: 12, Value: "Kegiatan:"}}, textsAt(first, 59))
	assert.Equal(t, []Text{{X: 30, Y: 67, Size: 12, Value: "w1"}}, textsAt(first, 67))
	assert.Equal(t, []Text{{X: 30, Y: 267, Size: 12, Value: "w26"}}, textsAt(first, 267))

	// the block continues on the next page, under repeated headers
	assert.Len(t, textsAt(second, 30), len(reportColumns))
	assert.Equal(t, []Text{{X: 30, Y: 40, Size: 12, Value: "w27"}}, textsAt(second, 40))
	assert.Equal(t, []Text{{X: 30, Y: 64, Size: 12, Value: "w30"}}, textsAt(second, 64))
	assert.Len(t, second.Texts, len(reportColumns)+4)
}

func TestReportDocument_notesSection(t *testing.T) {
	reports := []report.Report{{
		StudentID:  "s1",
		Date:       core.MustParseDate("2024-02-05"),
		Activities: "kerja",
		Notes:      "catatan",
	}}
	doc := ReportDocument(reports, testRoster, Daily, NewWindow(Daily, core.MustParseDate("2024-02-05")), wordWrapper{})
	require.Len(t, doc.Pages, 1)
	p := doc.Pages[0]
	// row 50, label 59, line 67, label 75, line 83
	assert.Equal(t, "Catatan:", textsAt(p, 75)[0].Value)
	assert.Equal(t, "catatan", textsAt(p, 83)[0].Value)
}

func TestGuidanceDocument(t *testing.T) {
	teachers := map[string]user.User{"t1": {ID: "t1", Name: "Budi Santoso"}}
	students := make([]user.User, 30)
	for i := range students {
		students[i] = user.User{NISN: fmt.Sprintf("%04d", i+1), Name: fmt.Sprintf("Siswa %d", i+1), Class: "XII RPL 1"}
		if i%2 == 0 {
			students[i].TeacherID = "t1"
		}
	}

	doc := GuidanceDocument(students, teachers, "XII RPL 1", wordWrapper{})
	assert.Equal(t, "Data Siswa Bimbingan XII RPL 1", doc.Title)
	require.Len(t, doc.Pages, 2)

	first, second := doc.Pages[0], doc.Pages[1]
	// rows every 10mm from 50 up to 270
	assert.Len(t, first.Texts, 1+4+23*4)
	headers := textsAt(first, 40)
	require.Len(t, headers, 4)
	for i, col := range []Column{{"NISN", 20}, {"Nama Siswa", 50}, {"Kelas", 110}, {"Guru Pembimbing", 140}} {
		assert.Equal(t, col, Column{Header: headers[i].Value, X: headers[i].X})
	}
	row1 := textsAt(first, 50)
	require.Len(t, row1, 4)
	assert.Equal(t, "Budi Santoso", row1[3].Value)
	assert.Len(t, textsAt(first, 270), 4)

	assert.Len(t, second.Texts, 4+7*4)
	assert.Len(t, textsAt(second, 30), 4)
	row24 := textsAt(second, 40)
	require.Len(t, row24, 4)
	assert.Equal(t, "0024", row24[0].Value)
	assert.Equal(t, "Belum ditugaskan", row24[3].Value)

	all := GuidanceDocument(nil, teachers, "", wordWrapper{})
	assert.Equal(t, "Data Siswa Bimbingan Semua Kelas", all.Title)
}
