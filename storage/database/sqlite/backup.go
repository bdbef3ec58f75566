package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/announcement"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/backup"
	"github.com/smkremaja/pkl/core/chat"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/setting"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
)

// wipedTables are emptied by Wipe; settings survive.
var wipedTables = []string{"users", "announcements", "messages", "attendances", "visits", "reports", "applications"}

type backupStore struct {
	repository

	users         *userRepository
	settings      *settingRepository
	announcements *announcementRepository
	chats         *chatRepository
	attendances   *attendanceRepository
	visits        *visitRepository
	reports       *reportRepository
	applications  *applicationRepository
}

var _ backup.Store = (*backupStore)(nil) // interface compliance check

func NewBackupStore(exec core.DBExecutor) *backupStore {
	return &backupStore{
		repository:    repository{exec: exec},
		users:         NewUserRepository(exec),
		settings:      NewSettingRepository(exec),
		announcements: NewAnnouncementRepository(exec),
		chats:         NewChatRepository(exec),
		attendances:   NewAttendanceRepository(exec),
		visits:        NewVisitRepository(exec),
		reports:       NewReportRepository(exec),
		applications:  NewApplicationRepository(exec),
	}
}

func (store backupStore) Dump(ctx context.Context, exec ...core.DBExecutor) (backup.Snapshot, error) {
	db := store.getExec(exec)
	var snap backup.Snapshot

	users, err := store.users.QueryUsers(ctx, nil, db)
	if err != nil {
		return backup.Snapshot{}, err
	}
	snap.Users = make([]user.Account, 0, len(users))
	for _, usr := range users {
		snap.Users = append(snap.Users, user.NewAccount(usr))
	}

	s, err := store.settings.GetSettings(ctx, db)
	switch {
	case err == nil:
		snap.Settings = &s
	case errors.Cause(err) != setting.ErrNotFound:
		return backup.Snapshot{}, err
	}

	if snap.Announcements, err = store.announcements.QueryAnnouncements(ctx, "", db); err != nil {
		return backup.Snapshot{}, err
	}
	if snap.Chats, err = store.chats.allMessages(ctx, db); err != nil {
		return backup.Snapshot{}, err
	}
	if snap.Attendances, err = store.attendances.QueryAttendances(ctx, nil, db); err != nil {
		return backup.Snapshot{}, err
	}
	if snap.TeacherVisits, err = store.visits.QueryVisits(ctx, nil, db); err != nil {
		return backup.Snapshot{}, err
	}
	if snap.Reports, err = store.reports.QueryReports(ctx, nil, db); err != nil {
		return backup.Snapshot{}, err
	}
	if snap.Applications, err = store.applications.QueryApplications(ctx, nil, db); err != nil {
		return backup.Snapshot{}, err
	}
	return snap, nil
}

// replaceAll empties table then inserts every record through create.
func replaceAll[T any](ctx context.Context, exec core.DBExecutor, table string, records []T, create func(T) error) error {
	if _, err := exec.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return errors.Wrapf(err, "emptying %s", table)
	}
	for _, rec := range records {
		if err := create(rec); err != nil {
			return err
		}
	}
	return nil
}

func (store backupStore) ReplaceAccounts(ctx context.Context, accounts []user.Account, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	return replaceAll(ctx, db, "users", accounts, func(a user.Account) error {
		_, err := store.users.CreateUser(ctx, a.ToUser(), db)
		return err
	})
}

func (store backupStore) ReplaceSettings(ctx context.Context, s setting.Settings, exec ...core.DBExecutor) error {
	return store.settings.SaveSettings(ctx, s, exec...)
}

func (store backupStore) ReplaceAnnouncements(ctx context.Context, anns []announcement.Announcement, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	return replaceAll(ctx, db, "announcements", anns, func(a announcement.Announcement) error {
		_, err := store.announcements.CreateAnnouncement(ctx, a, db)
		return err
	})
}

func (store backupStore) ReplaceMessages(ctx context.Context, msgs []chat.Message, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	return replaceAll(ctx, db, "messages", msgs, func(m chat.Message) error {
		_, err := store.chats.CreateMessage(ctx, m, db)
		return err
	})
}

func (store backupStore) ReplaceAttendances(ctx context.Context, atts []attendance.Attendance, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	return replaceAll(ctx, db, "attendances", atts, func(a attendance.Attendance) error {
		_, err := store.attendances.CreateAttendance(ctx, a, db)
		return err
	})
}

func (store backupStore) ReplaceVisits(ctx context.Context, visits []visit.Visit, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	return replaceAll(ctx, db, "visits", visits, func(v visit.Visit) error {
		_, err := store.visits.insert(ctx, v, db)
		return err
	})
}

func (store backupStore) ReplaceReports(ctx context.Context, reports []report.Report, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	return replaceAll(ctx, db, "reports", reports, func(r report.Report) error {
		_, err := store.reports.CreateReport(ctx, r, db)
		return err
	})
}

func (store backupStore) ReplaceApplications(ctx context.Context, apps []application.Application, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	return replaceAll(ctx, db, "applications", apps, func(a application.Application) error {
		_, err := store.applications.CreateApplication(ctx, a, db)
		return err
	})
}

func (store backupStore) Wipe(ctx context.Context, exec ...core.DBExecutor) error {
	db := store.getExec(exec)
	for _, table := range wipedTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "emptying %s", table)
		}
	}
	return nil
}
