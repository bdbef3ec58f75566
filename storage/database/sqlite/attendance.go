package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/attendance"
)

const attendanceColumns = "id, student_id, date, status, check_in_time, check_out_time, notes"

type attendanceRepository struct {
	repository
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{repository{exec: exec}}
}

func (repo attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance, exec ...core.DBExecutor) (attendance.Attendance, error) {
	att.ID = newID(att.ID)
	if err := execNamed(ctx, repo.getExec(exec), insertQuery("attendances", attendanceColumns), att, nil); err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return att, nil
}

func (repo attendanceRepository) GetAttendance(ctx context.Context, filter attendance.GetFilter, exec ...core.DBExecutor) (attendance.Attendance, error) {
	var conds conditions
	switch {
	case filter.ID != "":
		conds.add("id = ?", filter.ID)
	case filter.StudentID != "" && !filter.Date.IsZero():
		conds.add("student_id = ?", filter.StudentID)
		conds.add("date = ?", filter.Date)
	default:
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	q, args, err := conds.query("SELECT "+attendanceColumns+" FROM attendances", "LIMIT 1")
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "building query")
	}

	var att attendance.Attendance
	if err = repo.getExec(exec).GetContext(ctx, &att, q, args...); err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrNotFound, "getting attendance")
	}
	return att, nil
}

func (repo attendanceRepository) QueryAttendances(ctx context.Context, filter *attendance.QueryFilter, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	var conds conditions
	if filter != nil {
		if len(filter.StudentIDs) > 0 {
			conds.add("student_id IN (?)", filter.StudentIDs)
		}
		conds.addDateRange("date", filter.From, filter.To)
		if filter.Status != "" {
			conds.add("status = ?", filter.Status)
		}
	}
	q, args, err := conds.query("SELECT "+attendanceColumns+" FROM attendances", "ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	atts := make([]attendance.Attendance, 0)
	if err = repo.getExec(exec).SelectContext(ctx, &atts, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendances")
	}
	return atts, nil
}

func (repo attendanceRepository) UpdateAttendance(ctx context.Context, att attendance.Attendance, exec ...core.DBExecutor) (attendance.Attendance, error) {
	if err := execNamed(ctx, repo.getExec(exec), updateQuery("attendances", attendanceColumns), att, attendance.ErrNotFound); err != nil {
		if err == attendance.ErrNotFound {
			return attendance.Attendance{}, err
		}
		return attendance.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	return att, nil
}

func (repo attendanceRepository) DeleteAttendancesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return errors.Wrap(deleteByID(ctx, repo.getExec(exec), "attendances", ids), "deleting attendances")
}
