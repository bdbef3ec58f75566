package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/application"
)

const applicationColumns = "id, student_id, company_name, company_address, position, start_date, end_date, status, notes, submitted_at"

type applicationRepository struct {
	repository
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(exec core.DBExecutor) *applicationRepository {
	return &applicationRepository{repository{exec: exec}}
}

func (repo applicationRepository) CreateApplication(ctx context.Context, app application.Application, exec ...core.DBExecutor) (application.Application, error) {
	app.ID = newID(app.ID)
	app.SubmittedAt = app.SubmittedAt.UTC()
	if err := execNamed(ctx, repo.getExec(exec), insertQuery("applications", applicationColumns), app, nil); err != nil {
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo applicationRepository) GetApplicationByID(ctx context.Context, id string, exec ...core.DBExecutor) (application.Application, error) {
	var app application.Application
	q := "SELECT " + applicationColumns + " FROM applications WHERE id = ?"
	if err := repo.getExec(exec).GetContext(ctx, &app, q, id); err != nil {
		return application.Application{}, trapNoRowsErr(err, application.ErrNotFound, "getting application")
	}
	return app, nil
}

func (repo applicationRepository) QueryApplications(ctx context.Context, filter *application.QueryFilter, exec ...core.DBExecutor) ([]application.Application, error) {
	var conds conditions
	if filter != nil {
		if filter.Search != "" {
			val := likePattern(filter.Search)
			conds.add(
				"(company_name LIKE ? OR company_address LIKE ? OR student_id IN (SELECT id FROM users WHERE name LIKE ?))",
				val, val, val,
			)
		}
		if filter.Status != "" {
			conds.add("status = ?", filter.Status)
		}
		if len(filter.StudentIDs) > 0 {
			conds.add("student_id IN (?)", filter.StudentIDs)
		}
	}
	q, args, err := conds.query("SELECT "+applicationColumns+" FROM applications", "ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	apps := make([]application.Application, 0)
	if err = repo.getExec(exec).SelectContext(ctx, &apps, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}
	return apps, nil
}

func (repo applicationRepository) UpdateApplication(ctx context.Context, app application.Application, exec ...core.DBExecutor) (application.Application, error) {
	app.SubmittedAt = app.SubmittedAt.UTC()
	if err := execNamed(ctx, repo.getExec(exec), updateQuery("applications", applicationColumns), app, application.ErrNotFound); err != nil {
		if err == application.ErrNotFound {
			return application.Application{}, err
		}
		return application.Application{}, errors.Wrap(err, "updating application")
	}
	return app, nil
}

func (repo applicationRepository) DeleteApplicationsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return errors.Wrap(deleteByID(ctx, repo.getExec(exec), "applications", ids), "deleting applications")
}
