package report

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

var ErrNotFound = errors.New("report not found")

type (
	Repository interface {
		CreateReport(ctx context.Context, rep Report, exec ...core.DBExecutor) (Report, error)
		GetReportByID(ctx context.Context, id string, exec ...core.DBExecutor) (Report, error)
		// QueryReports returns the matching reports in insertion order.
		// QueryFilter.Search does a case-insensitive match on Report.Activities or Report.Notes.
		QueryReports(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Report, error)
		UpdateReport(ctx context.Context, rep Report, exec ...core.DBExecutor) (Report, error)
		DeleteReportsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, validate *validator.Validate) *Service {
	return &Service{db: db, repo: repo, validate: validate}
}

// Save creates a report for the student, or replaces the student's report with the given ID.
func (svc *Service) Save(ctx context.Context, studentID string, sr SaveReport) (Report, error) {
	if err := sr.Validate(svc.validate); err != nil {
		return Report{}, err
	}
	rep := Report{
		ID:         sr.ID,
		StudentID:  studentID,
		Date:       sr.Date,
		Activities: sr.Activities,
		Notes:      sr.Notes,
	}
	if sr.ID == "" {
		return svc.repo.CreateReport(ctx, rep)
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetReportByID(ctx, sr.ID, tx)
		if err != nil {
			return err
		}
		if existing.StudentID != studentID {
			return ErrNotFound
		}
		rep, err = svc.repo.UpdateReport(ctx, rep, tx)
		return errors.Wrap(err, "updating report")
	})
	return rep, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (Report, error) {
	return svc.repo.GetReportByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Report, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryReports(ctx, filter)
}

// ListForStudent returns the student's reports, newest first.
func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]Report, error) {
	reports, err := svc.repo.QueryReports(ctx, &QueryFilter{StudentIDs: []string{studentID}})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Date.After(reports[j].Date)
	})
	return reports, nil
}

// Delete removes the reports. When studentID is set only that student's reports may be removed.
func (svc *Service) Delete(ctx context.Context, studentID string, ids ...string) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if studentID != "" {
			for _, id := range ids {
				rep, err := svc.repo.GetReportByID(ctx, id, tx)
				if err != nil {
					return err
				}
				if rep.StudentID != studentID {
					return ErrNotFound
				}
			}
		}
		return svc.repo.DeleteReportsByID(ctx, ids, tx)
	})
}
