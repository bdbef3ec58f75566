package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/smkremaja/pkl/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusSick    = "sick"
	StatusHoliday = "holiday"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusSick, StatusHoliday}

// Attendance is a student's presence on one day. There is at most one per (StudentID, Date).
type Attendance struct {
	ID           string    `json:"id" db:"id" validate:"required"`
	StudentID    string    `json:"student_id" db:"student_id" validate:"required"`
	Date         core.Date `json:"date" db:"date" validate:"required"`
	Status       string    `json:"status" db:"status" validate:"required,oneof=present absent late sick holiday"`
	CheckInTime  string    `json:"check_in_time,omitempty" db:"check_in_time" validate:"omitempty,time_of_day"`
	CheckOutTime string    `json:"check_out_time,omitempty" db:"check_out_time" validate:"omitempty,time_of_day"`
	Notes        string    `json:"notes,omitempty" db:"notes"`
}

func (a Attendance) RecordDate() core.Date    { return a.Date }
func (a Attendance) RecordStudentID() string { return a.StudentID }

// Validate checks a stored record, e.g. one read from a backup.
func (a Attendance) Validate(validate *validator.Validate) error { return validate.Struct(a) }

// CheckIn is submitted by a student: the first one of the day checks in, the second checks out.
type CheckIn struct {
	Status string `json:"status" validate:"omitempty,oneof=present absent late sick holiday"`
	Notes  string `json:"notes"`
}

func (ci *CheckIn) Validate(validate *validator.Validate) error {
	ci.Status = core.CleanString(ci.Status, true /* lower */)
	ci.Notes = core.CleanString(ci.Notes)
	return validate.Struct(ci)
}

// NewAttendance is used by admins to record (or overwrite) a student's attendance for a day.
type NewAttendance struct {
	StudentID    string    `json:"student_id" validate:"required"`
	Date         core.Date `json:"date" validate:"required"`
	Status       string    `json:"status" validate:"required,oneof=present absent late sick holiday"`
	CheckInTime  string    `json:"check_in_time" validate:"omitempty,time_of_day"`
	CheckOutTime string    `json:"check_out_time" validate:"omitempty,time_of_day"`
	Notes        string    `json:"notes"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.StudentID = core.CleanString(na.StudentID)
	na.Status = core.CleanString(na.Status, true /* lower */)
	na.CheckInTime = core.CleanString(na.CheckInTime)
	na.CheckOutTime = core.CleanString(na.CheckOutTime)
	na.Notes = core.CleanString(na.Notes)
	return validate.Struct(na)
}

// UpdateAttendance replaces the editable fields of an Attendance.
type UpdateAttendance struct {
	Status       string `json:"status" validate:"required,oneof=present absent late sick holiday"`
	CheckInTime  string `json:"check_in_time" validate:"omitempty,time_of_day"`
	CheckOutTime string `json:"check_out_time" validate:"omitempty,time_of_day"`
	Notes        string `json:"notes"`
}

func (ua *UpdateAttendance) Validate(validate *validator.Validate) error {
	ua.Status = core.CleanString(ua.Status, true /* lower */)
	ua.CheckInTime = core.CleanString(ua.CheckInTime)
	ua.CheckOutTime = core.CleanString(ua.CheckOutTime)
	ua.Notes = core.CleanString(ua.Notes)
	return validate.Struct(ua)
}

type GetFilter struct {
	ID        string
	StudentID string
	Date      core.Date
}

type QueryFilter struct {
	StudentIDs []string  `query:"student_id"`
	From       core.Date `query:"from"`
	To         core.Date `query:"to"`
	Status     string    `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
