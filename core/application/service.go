package application

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
	ErrNotFound          = errors.New("application not found")
	ErrInProgress        = errors.New("an application is already pending or approved")
	ErrNotPending        = errors.New("application is not pending")
	ErrNotRejected       = errors.New("application status can only be reset after a rejection")
	ErrNotSupervisedUser = errors.New("student is not supervised by this teacher")
)

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		GetApplicationByID(ctx context.Context, id string, exec ...core.DBExecutor) (Application, error)
		// QueryApplications returns the matching applications in submission order.
		QueryApplications(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Application, error)
		UpdateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		DeleteApplicationsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
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

func (svc *Service) getStudent(ctx context.Context, id string, exec core.DBExecutor) (user.User, error) {
	student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id}, exec)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting student")
	}
	if !student.IsStudent() {
		return user.User{}, user.ErrNotStudent
	}
	return student, nil
}

func (svc *Service) saveStudent(ctx context.Context, student user.User, exec core.DBExecutor) error {
	student.UpdatedAt = time.Now().UTC()
	_, err := svc.usrRepo.UpdateUser(ctx, student, exec)
	return errors.Wrap(err, "updating student")
}

// Submit files a pending application and marks the student's status as pending.
func (svc *Service) Submit(ctx context.Context, studentID string, na NewApplication) (Application, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Application{}, err
	}

	var app Application
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		student, err := svc.getStudent(ctx, studentID, tx)
		if err != nil {
			return err
		}
		if student.ApplicationStatus == user.StatusPending || student.ApplicationStatus == user.StatusApproved {
			return ErrInProgress
		}

		app, err = svc.repo.CreateApplication(ctx, Application{
			StudentID:      studentID,
			CompanyName:    na.CompanyName,
			CompanyAddress: na.CompanyAddress,
			Position:       na.Position,
			StartDate:      na.StartDate,
			EndDate:        na.EndDate,
			Status:         StatusPending,
			Notes:          na.Notes,
			SubmittedAt:    time.Now().UTC(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating application")
		}

		student.ApplicationStatus = user.StatusPending
		return svc.saveStudent(ctx, student, tx)
	})
	return app, err
}

// review applies the decision on a pending application to both the application and its student.
// Teachers may only review the applications of the students they supervise.
func (svc *Service) review(ctx context.Context, id string, reviewer user.User, status string) (Application, error) {
	var app Application
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		app, err = svc.repo.GetApplicationByID(ctx, id, tx)
		if err != nil {
			return err
		}
		if app.Status != StatusPending {
			return ErrNotPending
		}
		student, err := svc.getStudent(ctx, app.StudentID, tx)
		if err != nil {
			return err
		}
		if reviewer.IsTeacher() && student.TeacherID != reviewer.ID {
			return ErrNotSupervisedUser
		}

		app.Status = status
		if app, err = svc.repo.UpdateApplication(ctx, app, tx); err != nil {
			return errors.Wrap(err, "updating application")
		}

		student.ApplicationStatus = status
		if status == StatusApproved {
			student.InternshipLocation = app.CompanyName
			student.InternshipStartDate = app.StartDate
			student.InternshipEndDate = app.EndDate
		}
		return svc.saveStudent(ctx, student, tx)
	})
	return app, err
}

// Approve accepts the application and places the student at its company for its period.
func (svc *Service) Approve(ctx context.Context, id string, reviewer user.User) (Application, error) {
	return svc.review(ctx, id, reviewer, StatusApproved)
}

func (svc *Service) Reject(ctx context.Context, id string, reviewer user.User) (Application, error) {
	return svc.review(ctx, id, reviewer, StatusRejected)
}

// Reset lets a rejected student apply again.
func (svc *Service) Reset(ctx context.Context, studentID string) (user.User, error) {
	var student user.User
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if student, err = svc.getStudent(ctx, studentID, tx); err != nil {
			return err
		}
		if student.ApplicationStatus != user.StatusRejected {
			return ErrNotRejected
		}
		student.ApplicationStatus = user.StatusNone
		return svc.saveStudent(ctx, student, tx)
	})
	return student, err
}

// Delete removes the applications. A student whose pending application is removed goes back to no application.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		for _, id := range ids {
			app, err := svc.repo.GetApplicationByID(ctx, id, tx)
			if err != nil {
				return err
			}
			if app.Status != StatusPending {
				continue
			}
			student, err := svc.getStudent(ctx, app.StudentID, tx)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					continue
				}
				return err
			}
			if student.ApplicationStatus == user.StatusPending {
				student.ApplicationStatus = user.StatusNone
				if err = svc.saveStudent(ctx, student, tx); err != nil {
					return err
				}
			}
		}
		return svc.repo.DeleteApplicationsByID(ctx, ids, tx)
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Application, error) {
	return svc.repo.GetApplicationByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Application, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryApplications(ctx, filter)
}

// Stats counts the applications per status.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	apps, err := svc.repo.QueryApplications(ctx, nil)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying applications")
	}
	stats := Stats{Total: len(apps)}
	for _, app := range apps {
		switch app.Status {
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}
