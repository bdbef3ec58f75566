package visit

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
)

// Visit types
const (
	TypePhysical = "physical"
	TypeVirtual  = "virtual"
	TypePhone    = "phone"
)

var (
	// errors
	ErrNotFound = errors.New("visit not found")

	typeLabels = map[string]string{
		TypePhysical: "Kunjungan Fisik",
		TypeVirtual:  "Kunjungan Virtual",
		TypePhone:    "Telepon",
	}
)

// TypeLabel returns the display label of a visit type.
func TypeLabel(typ string) string {
	if lbl, ok := typeLabels[typ]; ok {
		return lbl
	}
	return typ
}

// Visit is a supervising teacher's contact with the internship site on one day.
// There is at most one per (TeacherID, Date).
type Visit struct {
	ID            string    `json:"id" db:"id" validate:"required"`
	TeacherID     string    `json:"teacher_id" db:"teacher_id" validate:"required"`
	Date          core.Date `json:"date" db:"date" validate:"required"`
	Type          string    `json:"visit_type" db:"visit_type" validate:"required,oneof=physical virtual phone"`
	Location      string    `json:"location" db:"location" validate:"required"`
	Notes         string    `json:"visit_notes" db:"notes"`
	StudentIDs    []string  `json:"visited_student_ids" db:"-" validate:"dive,required"`
	FollowUp      bool      `json:"issued_follow_up" db:"follow_up"`
	FollowUpNotes string    `json:"follow_up_notes,omitempty" db:"follow_up_notes"`
}

// Validate checks a stored record, e.g. one read from a backup.
func (v Visit) Validate(validate *validator.Validate) error { return validate.Struct(v) }

// SaveVisit records the teacher's visit of the day, replacing any earlier one for that day.
type SaveVisit struct {
	Date          core.Date `json:"date" validate:"required"`
	Type          string    `json:"visit_type" validate:"required,oneof=physical virtual phone"`
	Location      string    `json:"location" validate:"required"`
	Notes         string    `json:"visit_notes"`
	StudentIDs    []string  `json:"visited_student_ids" validate:"dive,required"`
	FollowUp      bool      `json:"issued_follow_up"`
	FollowUpNotes string    `json:"follow_up_notes"`
}

func (sv *SaveVisit) Validate(validate *validator.Validate) error {
	sv.Type = core.CleanString(sv.Type, true /* lower */)
	sv.Location = core.CleanString(sv.Location)
	sv.Notes = core.CleanString(sv.Notes)
	sv.FollowUpNotes = core.CleanString(sv.FollowUpNotes)
	if !sv.FollowUp {
		sv.FollowUpNotes = ""
	}
	return validate.Struct(sv)
}

type QueryFilter struct {
	TeacherID string    `query:"teacher_id"`
	From      core.Date `query:"from"`
	To        core.Date `query:"to"`
	// Search does a case-insensitive match on the teacher's name, the location or a visited student's name.
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.TeacherID = core.CleanString(qf.TeacherID)
	qf.Search = core.CleanString(qf.Search)
}

type (
	Repository interface {
		// ReplaceVisit stores v in place of the teacher's visit on the same date, if any.
		ReplaceVisit(ctx context.Context, v Visit, exec ...core.DBExecutor) (Visit, error)
		GetVisitByID(ctx context.Context, id string, exec ...core.DBExecutor) (Visit, error)
		// QueryVisits returns the matching visits in insertion order.
		QueryVisits(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Visit, error)
		DeleteVisitsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		usrRepo  user.Repository
		validate *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, validate *validator.Validate) *Service {
	return &Service{db: db, repo: repo, usrRepo: usrRepo, validate: validate}
}

// Save records the teacher's visit for sv.Date. Only the teacher's own students may be listed.
func (svc *Service) Save(ctx context.Context, teacher user.User, sv SaveVisit) (Visit, error) {
	if err := sv.Validate(svc.validate); err != nil {
		return Visit{}, err
	}
	if !teacher.IsTeacher() {
		return Visit{}, user.ErrNotTeacher
	}

	var v Visit
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		for _, id := range sv.StudentIDs {
			student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id}, tx)
			if err != nil && errors.Cause(err) != user.ErrNotFound {
				return errors.Wrap(err, "getting student")
			}
			if err != nil || !student.IsStudent() || student.TeacherID != teacher.ID {
				return core.NewValidationError(
					errors.Errorf("student %s is not supervised by this teacher", id),
					core.FieldError{Field: "visited_student_ids", Error: "unknown student " + id},
				)
			}
		}

		studentIDs := sv.StudentIDs
		if studentIDs == nil {
			studentIDs = []string{}
		}
		var err error
		v, err = svc.repo.ReplaceVisit(ctx, Visit{
			TeacherID:     teacher.ID,
			Date:          sv.Date,
			Type:          sv.Type,
			Location:      sv.Location,
			Notes:         sv.Notes,
			StudentIDs:    studentIDs,
			FollowUp:      sv.FollowUp,
			FollowUpNotes: sv.FollowUpNotes,
		}, tx)
		return errors.Wrap(err, "saving visit")
	})
	return v, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (Visit, error) {
	return svc.repo.GetVisitByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Visit, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryVisits(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteVisitsByID(ctx, ids)
}
