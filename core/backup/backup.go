// Package backup dumps the whole record store to a JSON document and restores it.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/announcement"
	"github.com/smkremaja/pkl/core/application"
	"github.com/smkremaja/pkl/core/attendance"
	"github.com/smkremaja/pkl/core/chat"
	"github.com/smkremaja/pkl/core/report"
	"github.com/smkremaja/pkl/core/setting"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/core/visit"
)

var ErrWrongConfirmation = errors.New("wrong confirmation word, nothing was deleted")

// Snapshot is the backup document. On restore a nil collection is left untouched,
// while an empty one clears its table.
type Snapshot struct {
	Users         []user.Account              `json:"users"`
	Settings      *setting.Settings           `json:"settings"`
	Announcements []announcement.Announcement `json:"announcements"`
	Chats         []chat.Message              `json:"chats"`
	Attendances   []attendance.Attendance     `json:"attendances"`
	TeacherVisits []visit.Visit               `json:"teacherVisits"`
	Reports       []report.Report             `json:"reports"`
	Applications  []application.Application   `json:"applications"`
}

type (
	// Store reads and replaces whole collections. Replace methods keep the records' IDs.
	Store interface {
		// Dump reads every collection. Settings is nil when none were saved.
		Dump(ctx context.Context, exec ...core.DBExecutor) (Snapshot, error)
		ReplaceAccounts(ctx context.Context, accounts []user.Account, exec ...core.DBExecutor) error
		ReplaceSettings(ctx context.Context, s setting.Settings, exec ...core.DBExecutor) error
		ReplaceAnnouncements(ctx context.Context, anns []announcement.Announcement, exec ...core.DBExecutor) error
		ReplaceMessages(ctx context.Context, msgs []chat.Message, exec ...core.DBExecutor) error
		ReplaceAttendances(ctx context.Context, atts []attendance.Attendance, exec ...core.DBExecutor) error
		ReplaceVisits(ctx context.Context, visits []visit.Visit, exec ...core.DBExecutor) error
		ReplaceReports(ctx context.Context, reports []report.Report, exec ...core.DBExecutor) error
		ReplaceApplications(ctx context.Context, apps []application.Application, exec ...core.DBExecutor) error
		// Wipe deletes every record but the settings.
		Wipe(ctx context.Context, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		store    Store
		users    *user.Service
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(db core.DB, store Store, users *user.Service, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{db: db, store: store, users: users, validate: validate, conf: conf}
}

// Backup returns every collection; unsaved settings are reported as the defaults.
func (svc *Service) Backup(ctx context.Context) (Snapshot, error) {
	snap, err := svc.store.Dump(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "dumping store")
	}
	if snap.Settings == nil {
		defaults := setting.Defaults()
		snap.Settings = &defaults
	}
	snap.fillEmpty()
	return snap, nil
}

// fillEmpty turns nil collections into empty ones so that they encode as [].
func (snap *Snapshot) fillEmpty() {
	if snap.Users == nil {
		snap.Users = []user.Account{}
	}
	if snap.Announcements == nil {
		snap.Announcements = []announcement.Announcement{}
	}
	if snap.Chats == nil {
		snap.Chats = []chat.Message{}
	}
	if snap.Attendances == nil {
		snap.Attendances = []attendance.Attendance{}
	}
	if snap.TeacherVisits == nil {
		snap.TeacherVisits = []visit.Visit{}
	}
	if snap.Reports == nil {
		snap.Reports = []report.Report{}
	}
	if snap.Applications == nil {
		snap.Applications = []application.Application{}
	}
}

// Decode parses a backup document.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, core.NewValidationError(
			errors.Wrap(err, "invalid backup document"),
			core.FieldError{Field: "backup", Error: "not a valid backup document"},
		)
	}
	return snap, nil
}

type validatable interface {
	Validate(validate *validator.Validate) error
}

// uniqueKey is one key the store enforces as unique within a collection.
type uniqueKey struct {
	name  string // e.g. "id" or "student_id and date"
	value string
}

func idKey(id string) []uniqueKey { return []uniqueKey{{"id", id}} }

// checkCollection validates every record of a collection and rejects records
// sharing a unique key with an earlier one.
func checkCollection[T validatable](validate *validator.Validate, name string, records []T, keys func(T) []uniqueKey) error {
	seen := make(map[uniqueKey]int)
	for i, rec := range records {
		field := fmt.Sprintf("%s[%d]", name, i)
		if err := rec.Validate(validate); err != nil {
			return core.NewValidationError(
				errors.Wrapf(err, "invalid record in %s", name),
				core.FieldError{Field: field, Error: err.Error()},
			)
		}
		for _, k := range keys(rec) {
			if k.value == "" {
				continue
			}
			if first, dup := seen[k]; dup {
				msg := fmt.Sprintf("duplicate %s, already used by %s[%d]", k.name, name, first)
				return core.NewValidationError(
					errors.Errorf("duplicate record in %s: %s", name, msg),
					core.FieldError{Field: field, Error: msg},
				)
			}
			seen[k] = i
		}
	}
	return nil
}

func (svc *Service) check(snap Snapshot) error {
	err := checkCollection(svc.validate, "users", snap.Users, func(a user.Account) []uniqueKey {
		return append(idKey(a.ID), uniqueKey{"username", strings.ToLower(a.Username)})
	})
	if err != nil {
		return err
	}
	if snap.Settings != nil {
		if err := snap.Settings.Validate(svc.validate); err != nil {
			return core.NewValidationError(
				errors.Wrap(err, "invalid settings"),
				core.FieldError{Field: "settings", Error: err.Error()},
			)
		}
	}
	err = checkCollection(svc.validate, "announcements", snap.Announcements, func(a announcement.Announcement) []uniqueKey {
		return idKey(a.ID)
	})
	if err != nil {
		return err
	}
	err = checkCollection(svc.validate, "chats", snap.Chats, func(m chat.Message) []uniqueKey { return idKey(m.ID) })
	if err != nil {
		return err
	}
	err = checkCollection(svc.validate, "attendances", snap.Attendances, func(a attendance.Attendance) []uniqueKey {
		return append(idKey(a.ID), uniqueKey{"student_id and date", a.StudentID + "|" + a.Date.String()})
	})
	if err != nil {
		return err
	}
	err = checkCollection(svc.validate, "teacherVisits", snap.TeacherVisits, func(v visit.Visit) []uniqueKey {
		return append(idKey(v.ID), uniqueKey{"teacher_id and date", v.TeacherID + "|" + v.Date.String()})
	})
	if err != nil {
		return err
	}
	err = checkCollection(svc.validate, "reports", snap.Reports, func(r report.Report) []uniqueKey { return idKey(r.ID) })
	if err != nil {
		return err
	}
	return checkCollection(svc.validate, "applications", snap.Applications, func(a application.Application) []uniqueKey {
		return idKey(a.ID)
	})
}

// Restore validates every record of snap, then replaces the non-nil collections in one transaction.
func (svc *Service) Restore(ctx context.Context, snap Snapshot) error {
	if err := svc.check(snap); err != nil {
		return err
	}

	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if snap.Users != nil {
			if err := svc.store.ReplaceAccounts(ctx, snap.Users, tx); err != nil {
				return errors.Wrap(err, "restoring users")
			}
		}
		if snap.Settings != nil {
			if err := svc.store.ReplaceSettings(ctx, *snap.Settings, tx); err != nil {
				return errors.Wrap(err, "restoring settings")
			}
		}
		if snap.Announcements != nil {
			if err := svc.store.ReplaceAnnouncements(ctx, snap.Announcements, tx); err != nil {
				return errors.Wrap(err, "restoring announcements")
			}
		}
		if snap.Chats != nil {
			if err := svc.store.ReplaceMessages(ctx, snap.Chats, tx); err != nil {
				return errors.Wrap(err, "restoring chats")
			}
		}
		if snap.Attendances != nil {
			if err := svc.store.ReplaceAttendances(ctx, snap.Attendances, tx); err != nil {
				return errors.Wrap(err, "restoring attendances")
			}
		}
		if snap.TeacherVisits != nil {
			if err := svc.store.ReplaceVisits(ctx, snap.TeacherVisits, tx); err != nil {
				return errors.Wrap(err, "restoring teacher visits")
			}
		}
		if snap.Reports != nil {
			if err := svc.store.ReplaceReports(ctx, snap.Reports, tx); err != nil {
				return errors.Wrap(err, "restoring reports")
			}
		}
		if snap.Applications != nil {
			if err := svc.store.ReplaceApplications(ctx, snap.Applications, tx); err != nil {
				return errors.Wrap(err, "restoring applications")
			}
		}
		return nil
	})
}

// Wipe deletes everything but the settings when confirmation is the configured word,
// then recreates the default accounts so the portal stays reachable.
func (svc *Service) Wipe(ctx context.Context, confirmation string) error {
	if confirmation != svc.conf.WipeConfirmation {
		return core.NewValidationError(ErrWrongConfirmation, core.FieldError{Field: "confirmation", Error: ErrWrongConfirmation.Error()})
	}
	if err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		return svc.store.Wipe(ctx, tx)
	}); err != nil {
		return errors.Wrap(err, "wiping store")
	}
	if _, err := svc.users.Seed(ctx); err != nil {
		return errors.Wrap(err, "seeding default accounts")
	}
	return nil
}

// FileName names a backup taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("backup_%s.json", t.Format("20060102_150405"))
}

// WriteFile writes a backup to dir as backup_<timestamp>.json and returns its path.
func (svc *Service) WriteFile(ctx context.Context, dir string) (string, error) {
	snap, err := svc.Backup(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encoding backup")
	}
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrap(err, "creating backup directory")
	}
	path := filepath.Join(dir, FileName(core.NowFunc().In(svc.conf.Location)))
	if err = os.WriteFile(path, data, 0o640); err != nil {
		return "", errors.Wrap(err, "writing backup")
	}
	return path, nil
}
