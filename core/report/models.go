package report

import (
	"github.com/go-playground/validator/v10"

	"github.com/smkremaja/pkl/core"
)

// Report is a student's daily activity report.
type Report struct {
	ID         string    `json:"id" db:"id" validate:"required"`
	StudentID  string    `json:"student_id" db:"student_id" validate:"required"`
	Date       core.Date `json:"date" db:"date" validate:"required"`
	Activities string    `json:"activities" db:"activities" validate:"required"`
	Notes      string    `json:"notes,omitempty" db:"notes"`
}

func (r Report) RecordDate() core.Date    { return r.Date }
func (r Report) RecordStudentID() string { return r.StudentID }

// Validate checks a stored record, e.g. one read from a backup.
func (r Report) Validate(validate *validator.Validate) error { return validate.Struct(r) }

// SaveReport creates a Report, or replaces the one with ID when set.
type SaveReport struct {
	ID         string    `json:"id"`
	Date       core.Date `json:"date" validate:"required"`
	Activities string    `json:"activities" validate:"required"`
	Notes      string    `json:"notes"`
}

func (sr *SaveReport) Validate(validate *validator.Validate) error {
	sr.ID = core.CleanString(sr.ID)
	sr.Activities = core.CleanString(sr.Activities)
	sr.Notes = core.CleanString(sr.Notes)
	return validate.Struct(sr)
}

type QueryFilter struct {
	StudentIDs []string  `query:"student_id"`
	From       core.Date `query:"from"`
	To         core.Date `query:"to"`
	Search     string    `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
