package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/smkremaja/pkl/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Application statuses of a student
const (
	StatusNone     = "none"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

	Roles = []Role{
		{Name: "Siswa", Value: RoleStudent},
		{Name: "Guru", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}

	statusLabels = map[string]string{
		StatusNone:     "Belum Mengajukan",
		StatusPending:  "Menunggu",
		StatusApproved: "Disetujui",
		StatusRejected: "Ditolak",
	}
)

// StatusLabel returns the display label of an application status.
func StatusLabel(status string) string {
	if lbl, ok := statusLabels[status]; ok {
		return lbl
	}
	return statusLabels[StatusNone]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is an account of any role. Student and teacher fields are left empty for other roles.
type User struct {
	ID           string `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Name         string `json:"name" db:"name"`
	Role         string `json:"role" db:"role"`
	PasswordHash []byte `json:"-" db:"password_hash"`

	// student
	Class               string    `json:"class,omitempty" db:"class"`
	NISN                string    `json:"nisn,omitempty" db:"nisn"`
	TeacherID           string    `json:"teacher_id,omitempty" db:"teacher_id"`
	ApplicationStatus   string    `json:"application_status,omitempty" db:"application_status"`
	InternshipLocation  string    `json:"internship_location,omitempty" db:"internship_location"`
	InternshipStartDate core.Date `json:"internship_start_date" db:"internship_start_date"`
	InternshipEndDate   core.Date `json:"internship_end_date" db:"internship_end_date"`

	// teacher
	NIP     string `json:"nip,omitempty" db:"nip"`
	Subject string `json:"subject,omitempty" db:"subject"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// clearRoleFields drops the fields that do not belong to the user's role.
func (u *User) clearRoleFields() {
	if !u.IsStudent() {
		u.Class, u.NISN, u.TeacherID, u.ApplicationStatus, u.InternshipLocation = "", "", "", "", ""
		u.InternshipStartDate, u.InternshipEndDate = core.Date{}, core.Date{}
	} else if u.ApplicationStatus == "" {
		u.ApplicationStatus = StatusNone
	}
	if !u.IsTeacher() {
		u.NIP, u.Subject = "", ""
	}
}

// Account is a User along with its password hash, as stored in backups.
type Account struct {
	User
	PasswordHash []byte `json:"password_hash"`
}

func NewAccount(usr User) Account {
	return Account{User: usr, PasswordHash: usr.PasswordHash}
}

func (a Account) ToUser() User {
	usr := a.User
	usr.PasswordHash = a.PasswordHash
	return usr
}

// Validate checks a stored account, e.g. one read from a backup.
func (a Account) Validate(validate *validator.Validate) error {
	return validate.Struct(struct {
		ID           string `json:"id" validate:"required"`
		Username     string `json:"username" validate:"required"`
		Name         string `json:"name" validate:"required"`
		Role         string `json:"role" validate:"required,role"`
		PasswordHash []byte `json:"password_hash" validate:"required,min=1"`
	}{a.ID, a.Username, a.Name, a.Role, a.PasswordHash})
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Role            string `json:"role" validate:"required,role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Class           string `json:"class" validate:"required_if=Role student"`
	NISN            string `json:"nisn" validate:"required_if=Role student,omitempty,numeric"`
	TeacherID       string `json:"teacher_id"`
	NIP             string `json:"nip" validate:"required_if=Role teacher,omitempty,numeric"`
	Subject         string `json:"subject"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Class = core.CleanString(nu.Class)
	nu.NISN = core.CleanString(nu.NISN)
	nu.TeacherID = core.CleanString(nu.TeacherID)
	nu.NIP = core.CleanString(nu.NIP)
	nu.Subject = core.CleanString(nu.Subject)
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their current value.
type UpdateUser struct {
	Name            string  `json:"name"`
	Username        string  `json:"username" validate:"omitempty,min=3,max=50,alphanum_"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
	Class           string  `json:"class"`
	NISN            string  `json:"nisn" validate:"omitempty,numeric"`
	TeacherID       *string `json:"teacher_id"`
	NIP             string  `json:"nip" validate:"omitempty,numeric"`
	Subject         string  `json:"subject"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	uu.Name = core.CleanString(uu.Name)
	uu.Username = core.CleanString(uu.Username, true /* lower */)
	uu.Class = core.CleanString(uu.Class)
	uu.NISN = core.CleanString(uu.NISN)
	uu.NIP = core.CleanString(uu.NIP)
	uu.Subject = core.CleanString(uu.Subject)
	if uu.TeacherID != nil {
		tid := core.CleanString(*uu.TeacherID)
		uu.TeacherID = &tid
	}
	return validate.Struct(uu)
}

// apply copies the provided fields onto usr.
func (uu UpdateUser) apply(usr *User) {
	if uu.Name != "" {
		usr.Name = uu.Name
	}
	if uu.Username != "" {
		usr.Username = uu.Username
	}
	if uu.Class != "" {
		usr.Class = uu.Class
	}
	if uu.NISN != "" {
		usr.NISN = uu.NISN
	}
	if uu.TeacherID != nil {
		usr.TeacherID = *uu.TeacherID
	}
	if uu.NIP != "" {
		usr.NIP = uu.NIP
	}
	if uu.Subject != "" {
		usr.Subject = uu.Subject
	}
}

// ChangePassword is submitted by users changing their own password.
type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	name, username string // for the similarity check
}

func (cp *ChangePassword) Validate(validate *validator.Validate, usr User) error {
	cp.name = usr.Name
	cp.username = usr.Username
	return validate.Struct(cp)
}

type GetFilter struct {
	ID       string
	Username string
}

type QueryFilter struct {
	Search            string `query:"search"`
	Role              string `query:"role"`
	Class             string `query:"class"`
	TeacherID         string `query:"teacher_id"`
	ApplicationStatus string `query:"application_status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Class == "" && qf.TeacherID == "" && qf.ApplicationStatus == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	qf.Class = core.CleanString(qf.Class)
	qf.TeacherID = core.CleanString(qf.TeacherID)
	qf.ApplicationStatus = core.CleanString(qf.ApplicationStatus, true /* lower */)
}
