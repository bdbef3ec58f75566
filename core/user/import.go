package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

var ErrMissingColumn = errors.New("missing required column")

// importColumns maps each accepted (lowercase) header to its field, per role.
var importColumns = map[string]map[string]string{
	RoleStudent: {
		"nisn":  "id",
		"name":  "name",
		"nama":  "name",
		"class": "class",
		"kelas": "class",
	},
	RoleTeacher: {
		"nip":            "id",
		"name":           "name",
		"nama":           "name",
		"subject":        "subject",
		"mapel":          "subject",
		"mata pelajaran": "subject",
	},
}

// ImportRow is one roster row read from a spreadsheet. Row is the 1-based sheet row.
type ImportRow struct {
	Row     int
	ID      string // NISN or NIP, also used as username
	Name    string
	Class   string
	Subject string
}

type Rejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Imported []User      `json:"imported"`
	Rejected []Rejection `json:"rejected"`
}

// ParseImportRows maps the header row of `rows` to roster fields.
// Headers are matched case-insensitively and accept English and Indonesian names.
func ParseImportRows(role string, rows [][]string) ([]ImportRow, error) {
	aliases, ok := importColumns[role]
	if !ok {
		return nil, errors.Errorf("cannot import role %q", role)
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(ErrMissingColumn, "empty sheet")
	}

	index := make(map[string]int)
	for i, header := range rows[0] {
		if field, ok := aliases[core.CleanString(header, true /* lower */)]; ok {
			if _, seen := index[field]; !seen {
				index[field] = i
			}
		}
	}
	for _, field := range []string{"id", "name"} {
		if _, ok := index[field]; !ok {
			return nil, errors.Wrapf(ErrMissingColumn, "%s column not found", importIDHeader(role, field))
		}
	}

	cell := func(row []string, field string) string {
		if i, ok := index[field]; ok && i < len(row) {
			return core.CleanString(row[i])
		}
		return ""
	}

	parsed := make([]ImportRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		parsed = append(parsed, ImportRow{
			Row:     i + 2,
			ID:      cell(row, "id"),
			Name:    cell(row, "name"),
			Class:   cell(row, "class"),
			Subject: cell(row, "subject"),
		})
	}
	return parsed, nil
}

func importIDHeader(role, field string) string {
	if field != "id" {
		return field
	}
	if role == RoleTeacher {
		return "nip"
	}
	return "nisn"
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Import creates one account per valid row, all in one transaction.
// Rows with missing fields or an already used NISN/NIP are rejected and reported.
func (svc *Service) Import(ctx context.Context, role string, rows []ImportRow) (ImportResult, error) {
	var pwd string
	switch role {
	case RoleStudent:
		pwd = svc.conf.Import.StudentPassword
	case RoleTeacher:
		pwd = svc.conf.Import.TeacherPassword
	default:
		return ImportResult{}, errors.Errorf("cannot import role %q", role)
	}

	// imported accounts share the default password, hash it once
	var proto User
	if err := proto.SetPassword(pwd); err != nil {
		return ImportResult{}, errors.Wrap(err, "setting password")
	}

	result := ImportResult{Imported: []User{}, Rejected: []Rejection{}}
	reject := func(row int, reason string) {
		result.Rejected = append(result.Rejected, Rejection{Row: row, Reason: reason})
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		seen := make(map[string]bool, len(rows))
		now := time.Now().UTC()
		for _, row := range rows {
			if missing := missingImportFields(role, row); len(missing) > 0 {
				reject(row.Row, fmt.Sprintf("missing %s", strings.Join(missing, ", ")))
				continue
			}
			uname := strings.ToLower(row.ID)
			if seen[uname] {
				reject(row.Row, fmt.Sprintf("duplicate %s %s", importIDHeader(role, "id"), row.ID))
				continue
			}
			if err := svc.repo.CheckUsernameUniqueness(ctx, uname, nil, tx); err != nil {
				if err != ErrUsernameExists {
					return errors.Wrap(err, "checking username uniqueness")
				}
				reject(row.Row, ErrUsernameExists.Error())
				continue
			}
			seen[uname] = true

			usr := User{
				Username:     uname,
				Name:         row.Name,
				Role:         role,
				PasswordHash: proto.PasswordHash,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if role == RoleStudent {
				usr.NISN, usr.Class = row.ID, row.Class
			} else {
				usr.NIP, usr.Subject = row.ID, row.Subject
			}
			usr.clearRoleFields()

			created, err := svc.repo.CreateUser(ctx, usr, tx)
			if err != nil {
				return errors.Wrapf(err, "creating user from row %d", row.Row)
			}
			result.Imported = append(result.Imported, created)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

func missingImportFields(role string, row ImportRow) []string {
	var missing []string
	if row.ID == "" {
		missing = append(missing, importIDHeader(role, "id"))
	}
	if row.Name == "" {
		missing = append(missing, "name")
	}
	if role == RoleStudent && row.Class == "" {
		missing = append(missing, "class")
	}
	return missing
}
