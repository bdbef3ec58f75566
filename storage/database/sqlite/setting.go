package sqliterepos

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/setting"
)

// settings are kept as a single JSON document in row 1
type settingRepository struct {
	repository
}

var _ setting.Repository = (*settingRepository)(nil) // interface compliance check

func NewSettingRepository(exec core.DBExecutor) *settingRepository {
	return &settingRepository{repository{exec: exec}}
}

func (repo settingRepository) GetSettings(ctx context.Context, exec ...core.DBExecutor) (setting.Settings, error) {
	var doc string
	if err := repo.getExec(exec).GetContext(ctx, &doc, "SELECT document FROM settings WHERE id = 1"); err != nil {
		return setting.Settings{}, trapNoRowsErr(err, setting.ErrNotFound, "getting settings")
	}
	var s setting.Settings
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return setting.Settings{}, errors.Wrap(err, "decoding settings")
	}
	return s, nil
}

func (repo settingRepository) SaveSettings(ctx context.Context, s setting.Settings, exec ...core.DBExecutor) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	q := "INSERT INTO settings (id, document) VALUES (1, ?) ON CONFLICT (id) DO UPDATE SET document = excluded.document"
	if _, err = repo.getExec(exec).ExecContext(ctx, q, string(doc)); err != nil {
		return errors.Wrap(err, "saving settings")
	}
	return nil
}
