package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/announcement"
)

const announcementColumns = "id, title, content, date, published_by, for_roles"

type announcementRow struct {
	announcement.Announcement
	ForRoles stringList `db:"for_roles"`
}

func toAnnouncementRow(a announcement.Announcement) announcementRow {
	return announcementRow{Announcement: a, ForRoles: a.ForRoles}
}

func (row announcementRow) announcement() announcement.Announcement {
	a := row.Announcement
	a.ForRoles = row.ForRoles
	if a.ForRoles == nil {
		a.ForRoles = []string{}
	}
	return a
}

type announcementRepository struct {
	repository
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(exec core.DBExecutor) *announcementRepository {
	return &announcementRepository{repository{exec: exec}}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	a.ID = newID(a.ID)
	a.Date = a.Date.UTC()
	if err := execNamed(ctx, repo.getExec(exec), insertQuery("announcements", announcementColumns), toAnnouncementRow(a), nil); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return toAnnouncementRow(a).announcement(), nil
}

func (repo announcementRepository) GetAnnouncementByID(ctx context.Context, id string, exec ...core.DBExecutor) (announcement.Announcement, error) {
	var row announcementRow
	q := "SELECT " + announcementColumns + " FROM announcements WHERE id = ?"
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return announcement.Announcement{}, trapNoRowsErr(err, announcement.ErrNotFound, "getting announcement")
	}
	return row.announcement(), nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, role string, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	var conds conditions
	if role != "" {
		conds.add("EXISTS (SELECT 1 FROM json_each(announcements.for_roles) WHERE value = ?)", role)
	}
	q, args, err := conds.query("SELECT "+announcementColumns+" FROM announcements", "ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []announcementRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, row.announcement())
	}
	return anns, nil
}

func (repo announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	a.Date = a.Date.UTC()
	q := updateQuery("announcements", announcementColumns)
	if err := execNamed(ctx, repo.getExec(exec), q, toAnnouncementRow(a), announcement.ErrNotFound); err != nil {
		if err == announcement.ErrNotFound {
			return announcement.Announcement{}, err
		}
		return announcement.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	return toAnnouncementRow(a).announcement(), nil
}

func (repo announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return errors.Wrap(deleteByID(ctx, repo.getExec(exec), "announcements", ids), "deleting announcements")
}
