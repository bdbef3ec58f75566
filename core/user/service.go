package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotStudent         = errors.New("user is not a student")
	ErrNotTeacher         = errors.New("user is not a teacher")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username, User.NISN or User.NIP.
		QueryUsers(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		CountUsers(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		db       core.DB
		repo     Repository
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(db core.DB, repo Repository, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{db: db, repo: repo, validate: validate, conf: conf}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname string, exclIDs []string, exec ...core.DBExecutor) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, exclIDs, exec...); err != nil {
		if err == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

// checkTeacher ensures that id, when set, references a teacher.
func (svc *Service) checkTeacher(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if id == "" {
		return nil
	}
	teacher, err := svc.repo.GetUser(ctx, GetFilter{ID: id}, exec...)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(ErrNotFound, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
		}
		return errors.Wrap(err, "getting teacher")
	}
	if !teacher.IsTeacher() {
		return core.NewValidationError(ErrNotTeacher, core.FieldError{Field: "teacher_id", Error: ErrNotTeacher.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nil); err != nil {
		return User{}, err
	}
	if nu.Role == RoleStudent {
		if err := svc.checkTeacher(ctx, nu.TeacherID); err != nil {
			return User{}, err
		}
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Role:      nu.Role,
		Class:     nu.Class,
		NISN:      nu.NISN,
		TeacherID: nu.TeacherID,
		NIP:       nu.NIP,
		Subject:   nu.Subject,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.clearRoleFields()
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]User, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

// Roster returns every student keyed by ID.
func (svc *Service) Roster(ctx context.Context) (map[string]User, error) {
	students, err := svc.repo.QueryUsers(ctx, &QueryFilter{Role: RoleStudent})
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	roster := make(map[string]User, len(students))
	for _, s := range students {
		roster[s.ID] = s
	}
	return roster, nil
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	if err := uu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	if uu.Username != "" && uu.Username != usr.Username {
		if err = svc.checkUniqueness(ctx, uu.Username, []string{usr.ID}); err != nil {
			return User{}, err
		}
	}
	if usr.IsStudent() && uu.TeacherID != nil {
		if err = svc.checkTeacher(ctx, *uu.TeacherID); err != nil {
			return User{}, err
		}
	}

	uu.apply(&usr)
	usr.clearRoleFields()
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids)
}

// Authenticate returns the User matching the credentials.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "getting user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// ChangePassword changes the password of a user who knows the current one.
func (svc *Service) ChangePassword(ctx context.Context, id string, cp ChangePassword) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if err = cp.Validate(svc.validate, usr); err != nil {
		return err
	}
	if err = usr.CheckPassword(cp.OldPassword); err != nil {
		return core.NewValidationError(ErrInvalidCredentials, core.FieldError{Field: "old_password", Error: "wrong password"})
	}
	return svc.setPassword(ctx, usr, cp.Password)
}

// ResetPassword sets a new password without applying the password policy.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	return svc.setPassword(ctx, usr, pwd)
}

func (svc *Service) setPassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

// AssignTeacher sets (or clears, when teacherID is empty) the supervising teacher of the students.
func (svc *Service) AssignTeacher(ctx context.Context, teacherID string, studentIDs ...string) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.checkTeacher(ctx, teacherID, tx); err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, id := range studentIDs {
			student, err := svc.repo.GetUser(ctx, GetFilter{ID: id}, tx)
			if err != nil {
				return err
			}
			if !student.IsStudent() {
				return ErrNotStudent
			}
			student.TeacherID = teacherID
			student.UpdatedAt = now
			if _, err = svc.repo.UpdateUser(ctx, student, tx); err != nil {
				return errors.Wrap(err, "updating student")
			}
		}
		return nil
	})
}

// Seed creates the default accounts when there are no users yet.
// It reports whether the accounts were created.
func (svc *Service) Seed(ctx context.Context) (bool, error) {
	var seeded bool
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		count, err := svc.repo.CountUsers(ctx, tx)
		if err != nil {
			return errors.Wrap(err, "counting users")
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		create := func(usr User, pwd string) (User, error) {
			usr.CreatedAt, usr.UpdatedAt = now, now
			usr.clearRoleFields()
			if err := usr.SetPassword(pwd); err != nil {
				return User{}, errors.Wrap(err, "setting password")
			}
			return svc.repo.CreateUser(ctx, usr, tx)
		}

		if _, err = create(User{Username: "admin", Name: "Administrator", Role: RoleAdmin}, "admin123"); err != nil {
			return err
		}
		teacher, err := create(User{
			Username: "teacher1",
			Name:     "Budi Santoso",
			Role:     RoleTeacher,
			NIP:      "198512102010011002",
			Subject:  "Komputer",
		}, "teacher123")
		if err != nil {
			return err
		}
		if _, err = create(User{
			Username:  "student1",
			Name:      "Ani Wijaya",
			Role:      RoleStudent,
			Class:     "XII RPL 1",
			NISN:      "0051237584",
			TeacherID: teacher.ID,
		}, "student123"); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	return seeded, err
}
