package shared

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/announcement"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/backup"
	"github.com/smkremaja/pkl/core/chat"
	"github.com/smkremaja/pkl/core/recap"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/setting"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
	"github.com/smkremaja/pkl/services/document"
	sqliterepos "github.com/smkremaja/pkl/storage/database/sqlite"
)

type Services struct {
	Users         *user.Service
	Attendances   *attendance.Service
	Reports       *report.Service
	Applications  *application.Service
	Chats         *chat.Service
	Visits        *visit.Service
	Announcements *announcement.Service
	Settings      *setting.Service
	Recaps        *recap.Service
	Backups       *backup.Service
}

// NewServices builds every service over the SQLite repositories of db.
func NewServices(db *sqlx.DB, validate *validator.Validate, conf *core.Config) *Services {
	usrRepo := sqliterepos.NewUserRepository(db)

	svcs := &Services{
		Users:         user.NewService(db, usrRepo, validate, conf),
		Attendances:   attendance.NewService(db, sqliterepos.NewAttendanceRepository(db), usrRepo, validate, conf),
		Reports:       report.NewService(db, sqliterepos.NewReportRepository(db), validate),
		Applications:  application.NewService(db, sqliterepos.NewApplicationRepository(db), usrRepo, validate),
		Chats:         chat.NewService(db, sqliterepos.NewChatRepository(db), usrRepo, validate),
		Visits:        visit.NewService(db, sqliterepos.NewVisitRepository(db), usrRepo, validate),
		Announcements: announcement.NewService(sqliterepos.NewAnnouncementRepository(db), validate),
		Settings:      setting.NewService(sqliterepos.NewSettingRepository(db), validate),
	}
	svcs.Recaps = recap.NewService(
		svcs.Users, svcs.Attendances, svcs.Reports, svcs.Visits, svcs.Applications, document.NewWrapper(), conf,
	)
	svcs.Backups = backup.NewService(db, sqliterepos.NewBackupStore(db), svcs.Users, validate, conf)
	return svcs
}

// Seed creates the default accounts and the opening announcement on an empty store.
func (svcs *Services) Seed(ctx context.Context) (bool, error) {
	seeded, err := svcs.Users.Seed(ctx)
	if err != nil || !seeded {
		return false, errors.Wrap(err, "seeding users")
	}
	admin, err := svcs.Users.GetByUsername(ctx, "admin")
	if err != nil {
		return false, errors.Wrap(err, "getting admin")
	}
	if _, err = svcs.Announcements.Seed(ctx, admin); err != nil {
		return false, errors.Wrap(err, "seeding announcements")
	}
	return true, nil
}
