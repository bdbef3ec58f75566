package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/backup"
	"github.com/smkremaja/pkl/core/user"
)

type backupApi struct {
	svc    *backup.Service
	logger core.Logger
	conf   *core.Config
}

func registerBackupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *backup.Service, usrSvc *user.Service, logger core.Logger, conf *core.Config) {
	api := backupApi{svc: svc, logger: logger, conf: conf}

	bg := g.Group("/backup", jwt, ctxUserMiddleware(usrSvc), adminMiddleware())
	bg.GET("", api.download)
	bg.POST("/restore", api.restore)
	bg.POST("/wipe", api.wipe)
}

func (api *backupApi) download(ctx echo.Context) error {
	snap, err := api.svc.Backup(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "backing up")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding backup")
	}
	name := backup.FileName(core.NowFunc().In(api.conf.Location))
	return attachment(ctx, name, echo.MIMEApplicationJSONCharsetUTF8, data)
}

// restore replaces the collections present in the uploaded backup file.
func (api *backupApi) restore(ctx echo.Context) error {
	data, err := readUpload(ctx)
	if err != nil {
		return err
	}
	snap, err := backup.Decode(data)
	if err != nil {
		return err
	}
	if err = api.svc.Restore(ctx.Request().Context(), snap); err != nil {
		return errors.Wrap(err, "restoring backup")
	}

	claims, _ := getContextClaims(ctx)
	api.logger.Info("backup restored", map[string]interface{}{"by": claims.Username})
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Backup has been restored."})
}

// wipe deletes every record but the settings, then re-creates the default accounts.
func (api *backupApi) wipe(ctx echo.Context) error {
	var data WipeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WipeRequest")
	}
	if err := api.svc.Wipe(ctx.Request().Context(), data.Confirmation); err != nil {
		return errors.Wrap(err, "wiping data")
	}

	claims, _ := getContextClaims(ctx)
	api.logger.Warn("data wiped", map[string]interface{}{"by": claims.Username})
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "All data has been deleted."})
}

type WipeRequest struct {
	Confirmation string `json:"confirmation"`
}
