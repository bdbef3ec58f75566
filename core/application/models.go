package application

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var statusLabels = map[string]string{
	StatusPending:  "Menunggu",
	StatusApproved: "Disetujui",
	StatusRejected: "Ditolak",
}

// StatusLabel returns the display label of an application status.
func StatusLabel(status string) string {
	return statusLabels[status]
}

// Application is a student's request for an internship placement.
type Application struct {
	ID             string    `json:"id" db:"id" validate:"required"`
	StudentID      string    `json:"student_id" db:"student_id" validate:"required"`
	CompanyName    string    `json:"company_name" db:"company_name" validate:"required"`
	CompanyAddress string    `json:"company_address" db:"company_address" validate:"required"`
	Position       string    `json:"position" db:"position" validate:"required"`
	StartDate      core.Date `json:"start_date" db:"start_date" validate:"required"`
	EndDate        core.Date `json:"end_date" db:"end_date" validate:"required"`
	Status         string    `json:"status" db:"status" validate:"required,oneof=pending approved rejected"`
	Notes          string    `json:"notes,omitempty" db:"notes"`
	SubmittedAt    time.Time `json:"submitted_at" db:"submitted_at"` // UTC
}

// Validate checks a stored record, e.g. one read from a backup.
func (a Application) Validate(validate *validator.Validate) error {
	if err := validate.Struct(a); err != nil {
		return err
	}
	return checkPeriod(a.StartDate, a.EndDate)
}

// NewApplication is submitted by a student.
type NewApplication struct {
	CompanyName    string    `json:"company_name" validate:"required"`
	CompanyAddress string    `json:"company_address" validate:"required"`
	Position       string    `json:"position" validate:"required"`
	StartDate      core.Date `json:"start_date" validate:"required"`
	EndDate        core.Date `json:"end_date" validate:"required"`
	Notes          string    `json:"notes"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.CompanyName = core.CleanString(na.CompanyName)
	na.CompanyAddress = core.CleanString(na.CompanyAddress)
	na.Position = core.CleanString(na.Position)
	na.Notes = core.CleanString(na.Notes)
	if err := validate.Struct(na); err != nil {
		return err
	}
	return checkPeriod(na.StartDate, na.EndDate)
}

func checkPeriod(start, end core.Date) error {
	if end.Before(start) {
		return core.NewValidationError(
			errors.New("internship ends before it starts"),
			core.FieldError{Field: "end_date", Error: "must not be before start_date"},
		)
	}
	return nil
}

type QueryFilter struct {
	// Search does a case-insensitive match on the student's name, the company name or the company address.
	Search     string   `query:"search"`
	Status     string   `query:"status"`
	StudentIDs []string `query:"student_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
