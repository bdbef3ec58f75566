package attendance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("attendance not found")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrStatusReported    = errors.New("today's status has already been reported")
)

const timeOfDayLayout = "15:04"

type (
	Repository interface {
		CreateAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (Attendance, error)
		// GetAttendance finds an Attendance by ID, or by StudentID and Date.
		GetAttendance(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Attendance, error)
		// QueryAttendances returns the matching records in insertion order.
		QueryAttendances(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Attendance, error)
		UpdateAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (Attendance, error)
		DeleteAttendancesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		usrRepo  user.Repository
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{db: db, repo: repo, usrRepo: usrRepo, validate: validate, conf: conf}
}

func (svc *Service) checkStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id}, exec...)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: "student not found"})
		}
		return errors.Wrap(err, "getting student")
	}
	if !usr.IsStudent() {
		return core.NewValidationError(user.ErrNotStudent, core.FieldError{Field: "student_id", Error: user.ErrNotStudent.Error()})
	}
	return nil
}

// CheckIn records the student's arrival on the first call of the day and their departure on the second.
// Sick and holiday reports carry no check-in time and cannot be checked out of.
func (svc *Service) CheckIn(ctx context.Context, studentID string, ci CheckIn) (Attendance, error) {
	if err := ci.Validate(svc.validate); err != nil {
		return Attendance{}, err
	}
	now := core.NowFunc().In(svc.conf.Location)
	today := core.DateOf(now)
	clock := now.Format(timeOfDayLayout)

	var att Attendance
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetAttendance(ctx, GetFilter{StudentID: studentID, Date: today}, tx)
		switch {
		case err == nil:
			if existing.Status == StatusSick || existing.Status == StatusHoliday {
				return ErrStatusReported
			}
			if existing.CheckOutTime != "" {
				return ErrAlreadyCheckedOut
			}
			existing.CheckOutTime = clock
			if ci.Notes != "" {
				existing.Notes = ci.Notes
			}
			att, err = svc.repo.UpdateAttendance(ctx, existing, tx)
			return errors.Wrap(err, "checking out")
		case errors.Cause(err) == ErrNotFound:
			if err = svc.checkStudent(ctx, studentID, tx); err != nil {
				return err
			}
			status := ci.Status
			if status == "" {
				status = StatusPresent
			}
			att = Attendance{StudentID: studentID, Date: today, Status: status, Notes: ci.Notes}
			if status != StatusSick && status != StatusHoliday {
				att.CheckInTime = clock
			}
			att, err = svc.repo.CreateAttendance(ctx, att, tx)
			return errors.Wrap(err, "checking in")
		default:
			return errors.Wrap(err, "getting today's attendance")
		}
	})
	return att, err
}

// Today returns the student's attendance for the current day.
func (svc *Service) Today(ctx context.Context, studentID string) (Attendance, error) {
	return svc.repo.GetAttendance(ctx, GetFilter{StudentID: studentID, Date: svc.conf.Today()})
}

// Save creates the student's attendance for the day, or overwrites the existing one.
func (svc *Service) Save(ctx context.Context, na NewAttendance) (Attendance, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Attendance{}, err
	}

	var att Attendance
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.checkStudent(ctx, na.StudentID, tx); err != nil {
			return err
		}
		existing, err := svc.repo.GetAttendance(ctx, GetFilter{StudentID: na.StudentID, Date: na.Date}, tx)
		if err != nil && errors.Cause(err) != ErrNotFound {
			return errors.Wrap(err, "getting attendance")
		}
		att = Attendance{
			ID:           existing.ID,
			StudentID:    na.StudentID,
			Date:         na.Date,
			Status:       na.Status,
			CheckInTime:  na.CheckInTime,
			CheckOutTime: na.CheckOutTime,
			Notes:        na.Notes,
		}
		if att.ID == "" {
			att, err = svc.repo.CreateAttendance(ctx, att, tx)
			return errors.Wrap(err, "creating attendance")
		}
		att, err = svc.repo.UpdateAttendance(ctx, att, tx)
		return errors.Wrap(err, "updating attendance")
	})
	return att, err
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAttendance) (Attendance, error) {
	if err := ua.Validate(svc.validate); err != nil {
		return Attendance{}, err
	}
	att, err := svc.repo.GetAttendance(ctx, GetFilter{ID: id})
	if err != nil {
		return Attendance{}, err
	}
	att.Status = ua.Status
	att.CheckInTime = ua.CheckInTime
	att.CheckOutTime = ua.CheckOutTime
	att.Notes = ua.Notes
	return svc.repo.UpdateAttendance(ctx, att)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Attendance, error) {
	return svc.repo.GetAttendance(ctx, GetFilter{ID: id})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Attendance, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryAttendances(ctx, filter)
}

// MonthOf returns the student's attendance for the calendar month, in insertion order.
func (svc *Service) MonthOf(ctx context.Context, studentID string, year int, month time.Month) ([]Attendance, error) {
	from := core.NewDate(year, month, 1)
	return svc.repo.QueryAttendances(ctx, &QueryFilter{
		StudentIDs: []string{studentID},
		From:       from,
		To:         core.NewDate(year, month+1, 0),
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAttendancesByID(ctx, ids)
}
