package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/report"
)

const reportColumns = "id, student_id, date, activities, notes"

type reportRepository struct {
	repository
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(exec core.DBExecutor) *reportRepository {
	return &reportRepository{repository{exec: exec}}
}

func (repo reportRepository) CreateReport(ctx context.Context, rep report.Report, exec ...core.DBExecutor) (report.Report, error) {
	rep.ID = newID(rep.ID)
	if err := execNamed(ctx, repo.getExec(exec), insertQuery("reports", reportColumns), rep, nil); err != nil {
		return report.Report{}, errors.Wrap(err, "inserting report")
	}
	return rep, nil
}

func (repo reportRepository) GetReportByID(ctx context.Context, id string, exec ...core.DBExecutor) (report.Report, error) {
	var rep report.Report
	q := "SELECT " + reportColumns + " FROM reports WHERE id = ?"
	if err := repo.getExec(exec).GetContext(ctx, &rep, q, id); err != nil {
		return report.Report{}, trapNoRowsErr(err, report.ErrNotFound, "getting report")
	}
	return rep, nil
}

func (repo reportRepository) QueryReports(ctx context.Context, filter *report.QueryFilter, exec ...core.DBExecutor) ([]report.Report, error) {
	var conds conditions
	if filter != nil {
		if len(filter.StudentIDs) > 0 {
			conds.add("student_id IN (?)", filter.StudentIDs)
		}
		conds.addDateRange("date", filter.From, filter.To)
		if filter.Search != "" {
			val := likePattern(filter.Search)
			conds.add("(activities LIKE ? OR notes LIKE ?)", val, val)
		}
	}
	q, args, err := conds.query("SELECT "+reportColumns+" FROM reports", "ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	reports := make([]report.Report, 0)
	if err = repo.getExec(exec).SelectContext(ctx, &reports, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	return reports, nil
}

func (repo reportRepository) UpdateReport(ctx context.Context, rep report.Report, exec ...core.DBExecutor) (report.Report, error) {
	if err := execNamed(ctx, repo.getExec(exec), updateQuery("reports", reportColumns), rep, report.ErrNotFound); err != nil {
		if err == report.ErrNotFound {
			return report.Report{}, err
		}
		return report.Report{}, errors.Wrap(err, "updating report")
	}
	return rep, nil
}

func (repo reportRepository) DeleteReportsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return errors.Wrap(deleteByID(ctx, repo.getExec(exec), "reports", ids), "deleting reports")
}
