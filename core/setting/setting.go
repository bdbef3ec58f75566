package setting

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

// ErrNotFound is returned by repositories when no settings were saved yet.
var ErrNotFound = errors.New("settings not found")

type Period struct {
	Start core.Date `json:"start" validate:"required"`
	End   core.Date `json:"end" validate:"required"`
}

// Settings describes the school and the current internship period.
type Settings struct {
	SchoolName       string `json:"school_name" validate:"required"`
	SchoolAddress    string `json:"school_address" validate:"required"`
	SchoolLogo       string `json:"school_logo,omitempty"`
	AcademicYear     string `json:"academic_year" validate:"required"`
	InternshipPeriod Period `json:"internship_period"`
}

// Defaults are served until settings are saved.
func Defaults() Settings {
	return Settings{
		SchoolName:    "SMK Remaja Pluit",
		SchoolAddress: "Jl. Pluit Raya, Jakarta Utara",
		AcademicYear:  "2023/2024",
		InternshipPeriod: Period{
			Start: core.NewDate(2023, 7, 1),
			End:   core.NewDate(2023, 12, 31),
		},
	}
}

func (s *Settings) Validate(validate *validator.Validate) error {
	s.SchoolName = core.CleanString(s.SchoolName)
	s.SchoolAddress = core.CleanString(s.SchoolAddress)
	s.SchoolLogo = core.CleanString(s.SchoolLogo)
	s.AcademicYear = core.CleanString(s.AcademicYear)
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.InternshipPeriod.End.Before(s.InternshipPeriod.Start) {
		return core.NewValidationError(
			errors.New("internship period ends before it starts"),
			core.FieldError{Field: "end", Error: "must not be before start"},
		)
	}
	return nil
}

type (
	Repository interface {
		GetSettings(ctx context.Context, exec ...core.DBExecutor) (Settings, error)
		SaveSettings(ctx context.Context, s Settings, exec ...core.DBExecutor) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Get returns the saved settings, or the defaults when none were saved.
func (svc *Service) Get(ctx context.Context) (Settings, error) {
	s, err := svc.repo.GetSettings(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Defaults(), nil
		}
		return Settings{}, err
	}
	return s, nil
}

func (svc *Service) Save(ctx context.Context, s Settings) (Settings, error) {
	if err := s.Validate(svc.validate); err != nil {
		return Settings{}, err
	}
	if err := svc.repo.SaveSettings(ctx, s); err != nil {
		return Settings{}, errors.Wrap(err, "saving settings")
	}
	return s, nil
}
