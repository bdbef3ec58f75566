package announcement

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
)

var ErrNotFound = errors.New("announcement not found")

type Announcement struct {
	ID          string    `json:"id" db:"id" validate:"required"`
	Title       string    `json:"title" db:"title" validate:"required"`
	Content     string    `json:"content" db:"content" validate:"required"`
	Date        time.Time `json:"date" db:"date"` // UTC
	PublishedBy string    `json:"published_by" db:"published_by"`
	ForRoles    []string  `json:"for_roles" db:"-" validate:"dive,role"`
}

// Validate checks a stored record, e.g. one read from a backup.
func (a Announcement) Validate(validate *validator.Validate) error { return validate.Struct(a) }

// IsFor reports whether the announcement targets role.
func (a Announcement) IsFor(role string) bool {
	for _, r := range a.ForRoles {
		if r == role {
			return true
		}
	}
	return false
}

// SaveAnnouncement creates an Announcement, or replaces the one with ID when set.
type SaveAnnouncement struct {
	ID       string   `json:"id"`
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	ForRoles []string `json:"for_roles" validate:"required,min=1,dive,role"`
}

func (sa *SaveAnnouncement) Validate(validate *validator.Validate) error {
	sa.ID = core.CleanString(sa.ID)
	sa.Title = core.CleanString(sa.Title)
	sa.Content = core.CleanString(sa.Content)
	for i, r := range sa.ForRoles {
		sa.ForRoles[i] = core.CleanString(r, true /* lower */)
	}
	return validate.Struct(sa)
}

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
		GetAnnouncementByID(ctx context.Context, id string, exec ...core.DBExecutor) (Announcement, error)
		// QueryAnnouncements returns the announcements in insertion order, restricted to role when set.
		QueryAnnouncements(ctx context.Context, role string, exec ...core.DBExecutor) ([]Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
		DeleteAnnouncementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Save publishes the announcement as publisher, stamping it with the current time.
func (svc *Service) Save(ctx context.Context, publisher user.User, sa SaveAnnouncement) (Announcement, error) {
	if err := sa.Validate(svc.validate); err != nil {
		return Announcement{}, err
	}
	a := Announcement{
		ID:          sa.ID,
		Title:       sa.Title,
		Content:     sa.Content,
		Date:        core.NowFunc().UTC(),
		PublishedBy: publisher.ID,
		ForRoles:    sa.ForRoles,
	}
	if a.ID == "" {
		return svc.repo.CreateAnnouncement(ctx, a)
	}
	if _, err := svc.repo.GetAnnouncementByID(ctx, a.ID); err != nil {
		return Announcement{}, err
	}
	return svc.repo.UpdateAnnouncement(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncementByID(ctx, id)
}

// List returns every announcement, or those targeting role when set.
func (svc *Service) List(ctx context.Context, role string) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx, core.CleanString(role, true /* lower */))
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAnnouncementsByID(ctx, ids)
}

// Seed publishes the opening announcement when there are none yet.
func (svc *Service) Seed(ctx context.Context, publisher user.User) (bool, error) {
	existing, err := svc.repo.QueryAnnouncements(ctx, "")
	if err != nil {
		return false, errors.Wrap(err, "querying announcements")
	}
	if len(existing) > 0 {
		return false, nil
	}
	_, err = svc.repo.CreateAnnouncement(ctx, Announcement{
		Title:       "Pendaftaran PKL Dibuka",
		Content:     "Pendaftaran PKL untuk semester ini telah dibuka. Silahkan ajukan permohonan melalui sistem.",
		Date:        core.NowFunc().UTC(),
		PublishedBy: publisher.ID,
		ForRoles:    []string{user.RoleStudent, user.RoleTeacher},
	})
	return err == nil, errors.Wrap(err, "creating announcement")
}
