package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/visit"
)

const visitColumns = "id, teacher_id, date, visit_type, location, notes, student_ids, follow_up, follow_up_notes"

type visitRow struct {
	visit.Visit
	StudentIDs stringList `db:"student_ids"`
}

func toVisitRow(v visit.Visit) visitRow {
	return visitRow{Visit: v, StudentIDs: v.StudentIDs}
}

func (row visitRow) visit() visit.Visit {
	v := row.Visit
	v.StudentIDs = row.StudentIDs
	if v.StudentIDs == nil {
		v.StudentIDs = []string{}
	}
	return v
}

type visitRepository struct {
	repository
}

var _ visit.Repository = (*visitRepository)(nil) // interface compliance check

func NewVisitRepository(exec core.DBExecutor) *visitRepository {
	return &visitRepository{repository{exec: exec}}
}

func (repo visitRepository) insert(ctx context.Context, v visit.Visit, exec core.DBExecutor) (visit.Visit, error) {
	v.ID = newID(v.ID)
	if err := execNamed(ctx, exec, insertQuery("visits", visitColumns), toVisitRow(v), nil); err != nil {
		return visit.Visit{}, errors.Wrap(err, "inserting visit")
	}
	return toVisitRow(v).visit(), nil
}

func (repo visitRepository) ReplaceVisit(ctx context.Context, v visit.Visit, exec ...core.DBExecutor) (visit.Visit, error) {
	db := repo.getExec(exec)
	if _, err := db.ExecContext(ctx, "DELETE FROM visits WHERE teacher_id = ? AND date = ?", v.TeacherID, v.Date); err != nil {
		return visit.Visit{}, errors.Wrap(err, "deleting previous visit")
	}
	return repo.insert(ctx, v, db)
}

func (repo visitRepository) GetVisitByID(ctx context.Context, id string, exec ...core.DBExecutor) (visit.Visit, error) {
	var row visitRow
	q := "SELECT " + visitColumns + " FROM visits WHERE id = ?"
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return visit.Visit{}, trapNoRowsErr(err, visit.ErrNotFound, "getting visit")
	}
	return row.visit(), nil
}

func (repo visitRepository) QueryVisits(ctx context.Context, filter *visit.QueryFilter, exec ...core.DBExecutor) ([]visit.Visit, error) {
	var conds conditions
	if filter != nil {
		if filter.TeacherID != "" {
			conds.add("teacher_id = ?", filter.TeacherID)
		}
		conds.addDateRange("date", filter.From, filter.To)
		if filter.Search != "" {
			val := likePattern(filter.Search)
			conds.add(
				"(location LIKE ?"+
					" OR teacher_id IN (SELECT id FROM users WHERE name LIKE ?)"+
					" OR EXISTS (SELECT 1 FROM json_each(visits.student_ids) AS sid JOIN users u ON u.id = sid.value WHERE u.name LIKE ?))",
				val, val, val,
			)
		}
	}
	q, args, err := conds.query("SELECT "+visitColumns+" FROM visits", "ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []visitRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying visits")
	}
	visits := make([]visit.Visit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, row.visit())
	}
	return visits, nil
}

func (repo visitRepository) DeleteVisitsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return errors.Wrap(deleteByID(ctx, repo.getExec(exec), "visits", ids), "deleting visits")
}
