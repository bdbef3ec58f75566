package recap

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
)

// ErrNoDocument is returned when an export has no paginated rendition.
var ErrNoDocument = errors.New("this export is only available as a spreadsheet")

// Request selects the recap window (Range around Date) and optional selectors.
type Request struct {
	Range     TimeRange `query:"range"`
	Date      core.Date `query:"date"`
	StudentID string    `query:"student_id"`
	Class     string    `query:"class"`
	TeacherID string    `query:"teacher_id"` // visits only
	Search    string    `query:"search"`     // visits only
}

// Clean validates the range and defaults the anchor date to today.
func (req *Request) Clean(today core.Date) error {
	r, err := ParseTimeRange(string(req.Range))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "range", Error: err.Error()})
	}
	req.Range = r
	if req.Date.IsZero() {
		req.Date = today
	}
	req.StudentID = core.CleanString(req.StudentID)
	req.Class = core.CleanString(req.Class)
	req.TeacherID = core.CleanString(req.TeacherID)
	req.Search = core.CleanString(req.Search)
	return nil
}

// Recap is a filtered record set with its spreadsheet and, when available, document renditions.
type Recap struct {
	Name    string      `json:"name"` // file name without extension
	Range   TimeRange   `json:"range,omitempty"`
	Window  *Window     `json:"window,omitempty"`
	Records interface{} `json:"records"`
	Sheet   Sheet       `json:"-"`

	document func() Document
}

// HasDocument reports whether the recap can be rendered as a paginated document.
func (rc Recap) HasDocument() bool { return rc.document != nil }

func (rc Recap) Document() (Document, error) {
	if rc.document == nil {
		return Document{}, ErrNoDocument
	}
	return rc.document(), nil
}

type Service struct {
	users       *user.Service
	attendances *attendance.Service
	reports     *report.Service
	visits      *visit.Service
	apps        *application.Service
	wrapper     Wrapper
	conf        *core.Config
}

func NewService(
	users *user.Service,
	attendances *attendance.Service,
	reports *report.Service,
	visits *visit.Service,
	apps *application.Service,
	wrapper Wrapper,
	conf *core.Config,
) *Service {
	return &Service{
		users:       users,
		attendances: attendances,
		reports:     reports,
		visits:      visits,
		apps:        apps,
		wrapper:     wrapper,
		conf:        conf,
	}
}

func (svc *Service) prepare(ctx context.Context, req *Request) (Window, map[string]user.User, error) {
	if err := req.Clean(svc.conf.Today()); err != nil {
		return Window{}, nil, err
	}
	roster, err := svc.users.Roster(ctx)
	if err != nil {
		return Window{}, nil, errors.Wrap(err, "loading roster")
	}
	return NewWindow(req.Range, req.Date), roster, nil
}

// Attendances recaps the attendance records of the request's window.
func (svc *Service) Attendances(ctx context.Context, req Request) (Recap, error) {
	w, roster, err := svc.prepare(ctx, &req)
	if err != nil {
		return Recap{}, err
	}
	records, err := svc.attendances.Query(ctx, &attendance.QueryFilter{From: w.Start, To: w.End})
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying attendances")
	}
	records = Filter(records, Criteria{Window: w, StudentID: req.StudentID, Class: req.Class}, roster)

	return Recap{
		Name:    AttendanceFileName(req.Range, w),
		Range:   req.Range,
		Window:  &w,
		Records: records,
		Sheet:   AttendanceSheet(records, roster),
		document: func() Document {
			return AttendanceDocument(records, roster, req.Range, w, svc.wrapper)
		},
	}, nil
}

// Reports recaps the daily reports of the request's window.
func (svc *Service) Reports(ctx context.Context, req Request) (Recap, error) {
	w, roster, err := svc.prepare(ctx, &req)
	if err != nil {
		return Recap{}, err
	}
	reports, err := svc.reports.Query(ctx, &report.QueryFilter{From: w.Start, To: w.End})
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying reports")
	}
	reports = Filter(reports, Criteria{Window: w, StudentID: req.StudentID, Class: req.Class}, roster)

	return Recap{
		Name:    ReportFileName(req.Range, w),
		Range:   req.Range,
		Window:  &w,
		Records: reports,
		Sheet:   ReportSheet(reports, roster),
		document: func() Document {
			return ReportDocument(reports, roster, req.Range, w, svc.wrapper)
		},
	}, nil
}

// Visits recaps the teachers' visits of the request's window.
func (svc *Service) Visits(ctx context.Context, req Request) (Recap, error) {
	if err := req.Clean(svc.conf.Today()); err != nil {
		return Recap{}, err
	}
	w := NewWindow(req.Range, req.Date)

	all, err := svc.users.Query(ctx, nil)
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying users")
	}
	users := make(map[string]user.User, len(all))
	for _, u := range all {
		users[u.ID] = u
	}

	visits, err := svc.visits.Query(ctx, &visit.QueryFilter{
		TeacherID: req.TeacherID,
		From:      w.Start,
		To:        w.End,
		Search:    req.Search,
	})
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying visits")
	}

	return Recap{
		Name:    VisitFileName(req.Range, req.Date),
		Range:   req.Range,
		Window:  &w,
		Records: visits,
		Sheet:   VisitSheet(visits, users),
		document: func() Document {
			return VisitDocument(visits, users, req.Range, w, svc.wrapper)
		},
	}, nil
}

// Applications exports the applications matching filter.
func (svc *Service) Applications(ctx context.Context, filter *application.QueryFilter) (Recap, error) {
	roster, err := svc.users.Roster(ctx)
	if err != nil {
		return Recap{}, errors.Wrap(err, "loading roster")
	}
	apps, err := svc.apps.Query(ctx, filter)
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying applications")
	}
	return Recap{
		Name:    ApplicationFileName(svc.conf.Today()),
		Records: apps,
		Sheet:   ApplicationSheet(apps, roster),
	}, nil
}

// Students exports the student list.
func (svc *Service) Students(ctx context.Context, filter *user.QueryFilter) (Recap, error) {
	if filter == nil {
		filter = new(user.QueryFilter)
	}
	filter.Role = user.RoleStudent
	students, err := svc.users.Query(ctx, filter)
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying students")
	}
	return Recap{Name: StudentFileName, Records: students, Sheet: StudentSheet(students)}, nil
}

// Teachers exports the teacher list.
func (svc *Service) Teachers(ctx context.Context) (Recap, error) {
	teachers, err := svc.users.Query(ctx, &user.QueryFilter{Role: user.RoleTeacher})
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying teachers")
	}
	return Recap{Name: TeacherFileName, Records: teachers, Sheet: TeacherSheet(teachers)}, nil
}

// Guidance exports the students of class (all when empty) with their supervising teachers.
func (svc *Service) Guidance(ctx context.Context, class string) (Recap, error) {
	class = core.CleanString(class)
	students, err := svc.users.Query(ctx, &user.QueryFilter{Role: user.RoleStudent, Class: class})
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying students")
	}
	teacherList, err := svc.users.Query(ctx, &user.QueryFilter{Role: user.RoleTeacher})
	if err != nil {
		return Recap{}, errors.Wrap(err, "querying teachers")
	}
	teachers := make(map[string]user.User, len(teacherList))
	for _, t := range teacherList {
		teachers[t.ID] = t
	}
	return Recap{
		Name:    GuidanceFileName(class),
		Records: students,
		Sheet:   GuidanceSheet(students, teachers),
		document: func() Document {
			return GuidanceDocument(students, teachers, class, svc.wrapper)
		},
	}, nil
}
