package recap

import (
	"fmt"
	"strings"

	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
)

const noData = "Tidak ada data"

// Text is a string drawn with its baseline at (X, Y), in millimetres from the page's top-left corner.
type Text struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Value string  `json:"value"`
}

type Page struct {
	Texts []Text `json:"texts"`
}

// Document is a device independent paginated layout.
type Document struct {
	Title string `json:"title"`
	Pages []Page `json:"pages"`
}

// Wrapper splits a line of text into lines no wider than width.
type Wrapper interface {
	Wrap(text string, width float64) []string
}

// Column is a table column and the X position of its cells.
type Column struct {
	Header string
	X      float64
}

// Section is a labelled narrative printed under a row, one wrapped line after another.
type Section struct {
	Label string
	Text  string
}

// Block is a table row optionally followed by narrative sections.
type Block struct {
	Cells    []string
	Sections []Section
}

// Layout positions, in millimetres on an A4 page.
type Layout struct {
	TitleX, TitleY      float64
	TitleSize, BodySize float64
	HeaderY             float64 // first page
	FirstRowY           float64
	ContinuationHeaderY float64 // following pages
	ContinuationRowY    float64
	RowHeight           float64
	Threshold           float64 // a new page starts when the cursor goes past it
	LabelX              float64
	IndentX             float64
	LineHeight          float64
	ContentWidth        float64
	BlockGap            float64 // extra space after a block with sections
}

func DefaultLayout() Layout {
	return Layout{
		TitleX:              20,
		TitleY:              20,
		TitleSize:           16,
		BodySize:            12,
		HeaderY:             40,
		FirstRowY:           50,
		ContinuationHeaderY: 30,
		ContinuationRowY:    40,
		RowHeight:           9,
		Threshold:           270,
		LabelX:              20,
		IndentX:             30,
		LineHeight:          8,
		ContentWidth:        170,
		BlockGap:            10,
	}
}

type renderer struct {
	layout  Layout
	wrapper Wrapper
	columns []Column
	doc     Document
	y       float64
}

func (r *renderer) page() *Page {
	return &r.doc.Pages[len(r.doc.Pages)-1]
}

func (r *renderer) text(x, y, size float64, value string) {
	if value == "" {
		return
	}
	p := r.page()
	p.Texts = append(p.Texts, Text{X: x, Y: y, Size: size, Value: value})
}

func (r *renderer) headers(y float64) {
	for _, col := range r.columns {
		r.text(col.X, y, r.layout.BodySize, col.Header)
	}
}

// breakIfFull starts a new page, headed by the column headers, once the cursor passed the threshold.
func (r *renderer) breakIfFull() {
	if r.y <= r.layout.Threshold {
		return
	}
	r.doc.Pages = append(r.doc.Pages, Page{})
	r.headers(r.layout.ContinuationHeaderY)
	r.y = r.layout.ContinuationRowY
}

func (r *renderer) block(b Block) {
	r.breakIfFull()
	for i, cell := range b.Cells {
		if i < len(r.columns) {
			r.text(r.columns[i].X, r.y, r.layout.BodySize, cell)
		}
	}
	r.y += r.layout.RowHeight

	for _, sec := range b.Sections {
		r.breakIfFull()
		r.text(r.layout.LabelX, r.y, r.layout.BodySize, sec.Label)
		r.y += r.layout.LineHeight
		for _, para := range strings.Split(sec.Text, "\n") {
			lines := r.wrapper.Wrap(para, r.layout.ContentWidth)
			if len(lines) == 0 {
				lines = []string{""}
			}
			for _, line := range lines {
				r.breakIfFull()
				r.text(r.layout.IndentX, r.y, r.layout.BodySize, line)
				r.y += r.layout.LineHeight
			}
		}
	}
	if len(b.Sections) > 0 {
		r.y += r.layout.BlockGap
	}
}

// Render lays the blocks out top to bottom. Whenever the cursor goes past the threshold,
// before a row or any wrapped line, a new page starts with the column headers repeated,
// so a block may be split across pages.
func Render(title string, columns []Column, blocks []Block, layout Layout, wrapper Wrapper) Document {
	r := &renderer{
		layout:  layout,
		wrapper: wrapper,
		columns: columns,
		doc:     Document{Title: title, Pages: []Page{{}}},
		y:       layout.FirstRowY,
	}
	r.text(layout.TitleX, layout.TitleY, layout.TitleSize, title)
	r.headers(layout.HeaderY)

	if len(blocks) == 0 {
		r.text(layout.LabelX, layout.FirstRowY, layout.BodySize, noData)
		return r.doc
	}
	for _, b := range blocks {
		r.block(b)
	}
	return r.doc
}

var (
	attendanceColumns = []Column{{"Tanggal", 20}, {"Nama", 50}, {"NISN", 100}, {"Kelas", 130}, {"Status", 160}}
	reportColumns     = []Column{{"Tanggal", 20}, {"Nama", 50}, {"NISN", 100}, {"Kelas", 130}}
	visitColumns      = []Column{{"Tanggal", 15}, {"Guru", 45}, {"Lokasi", 105}, {"Jenis Kunjungan", 155}}
	guidanceColumns   = []Column{{"NISN", 20}, {"Nama Siswa", 50}, {"Kelas", 110}, {"Guru Pembimbing", 140}}
)

func windowTitle(prefix string, r TimeRange, w Window) string {
	return fmt.Sprintf("%s %s: %s s/d %s", prefix, r.Label(), w.Start, w.End)
}

func AttendanceDocument(records []attendance.Attendance, roster map[string]user.User, r TimeRange, w Window, wrapper Wrapper) Document {
	blocks := make([]Block, 0, len(records))
	for _, att := range records {
		name, nisn, class := studentCells(roster, att.StudentID)
		blocks = append(blocks, Block{Cells: []string{att.Date.LocaleString(), name, nisn, class, AttendanceLabel(att.Status)}})
	}
	return Render(windowTitle("Rekap Absensi", r, w), attendanceColumns, blocks, DefaultLayout(), wrapper)
}

func ReportDocument(reports []report.Report, roster map[string]user.User, r TimeRange, w Window, wrapper Wrapper) Document {
	blocks := make([]Block, 0, len(reports))
	for _, rep := range reports {
		name, nisn, class := studentCells(roster, rep.StudentID)
		b := Block{
			Cells:    []string{rep.Date.LocaleString(), name, nisn, class},
			Sections: []Section{{Label: "Kegiatan:", Text: rep.Activities}},
		}
		if rep.Notes != "" {
			b.Sections = append(b.Sections, Section{Label: "Catatan:", Text: rep.Notes})
		}
		blocks = append(blocks, b)
	}
	return Render(windowTitle("Rekap Laporan Kegiatan", r, w), reportColumns, blocks, DefaultLayout(), wrapper)
}

// VisitDocument lays out visits; users must hold both the teachers and the students.
func VisitDocument(visits []visit.Visit, users map[string]user.User, r TimeRange, w Window, wrapper Wrapper) Document {
	blocks := make([]Block, 0, len(visits))
	for _, v := range visits {
		b := Block{Cells: []string{v.Date.LocaleString(), teacherName(users, v.TeacherID), v.Location, visit.TypeLabel(v.Type)}}
		if names := visitStudentNames(v, users); len(names) > 0 {
			b.Sections = append(b.Sections, Section{Label: "Siswa yang Dikunjungi:", Text: "- " + strings.Join(names, "\n- ")})
		}
		if v.Notes != "" {
			b.Sections = append(b.Sections, Section{Label: "Catatan:", Text: v.Notes})
		}
		if v.FollowUp && v.FollowUpNotes != "" {
			b.Sections = append(b.Sections, Section{Label: "Tindak Lanjut:", Text: v.FollowUpNotes})
		}
		blocks = append(blocks, b)
	}
	layout := DefaultLayout()
	layout.IndentX = 25
	return Render(windowTitle("Rekap Monitoring Kunjungan Guru", r, w), visitColumns, blocks, layout, wrapper)
}

// GuidanceDocument lists the students of class (all classes when empty) with their supervising teacher.
func GuidanceDocument(students []user.User, teachers map[string]user.User, class string, wrapper Wrapper) Document {
	blocks := make([]Block, 0, len(students))
	for _, s := range students {
		blocks = append(blocks, Block{Cells: []string{s.NISN, s.Name, s.Class, supervisorName(teachers, s.TeacherID)}})
	}
	title := "Data Siswa Bimbingan Semua Kelas"
	if class != "" {
		title = "Data Siswa Bimbingan " + class
	}
	layout := DefaultLayout()
	layout.RowHeight = 10
	return Render(title, guidanceColumns, blocks, layout, wrapper)
}
