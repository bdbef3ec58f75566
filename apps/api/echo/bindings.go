package echoapi

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

const (
	idsParam    = "id"
	formatParam = "format"
	uploadField = "file"

	maxUploadSize = 32 << 20
)

// Export formats
const (
	formatJSON = "json"
	formatXLSX = "xlsx"
	formatPDF  = "pdf"
)

var errMissingUpload = core.NewValidationError(nil, core.FieldError{Field: uploadField, Error: "this field is required"})

// bindIDs returns the non-blank `id` query parameters.
func bindIDs(ctx echo.Context) []string {
	var ids []string
	for _, id := range ctx.QueryParams()[idsParam] {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// bindFormat returns the lowercased `format` query parameter, json by default.
func bindFormat(ctx echo.Context) (string, error) {
	format := core.CleanString(ctx.QueryParam(formatParam), true /* lower */)
	switch format {
	case "":
		return formatJSON, nil
	case formatJSON, formatXLSX, formatPDF:
		return format, nil
	}
	return "", core.NewValidationError(nil, core.FieldError{Field: formatParam, Error: "must be one of json, xlsx or pdf"})
}

// readUpload returns the content of the multipart `file` field, or the raw request body
// for non-multipart requests.
func readUpload(ctx echo.Context) ([]byte, error) {
	req := ctx.Request()
	req.Body = http.MaxBytesReader(ctx.Response(), req.Body, maxUploadSize)

	var src io.Reader = req.Body
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := ctx.FormFile(uploadField)
		if err != nil {
			if err == http.ErrMissingFile {
				return nil, errMissingUpload
			}
			return nil, errors.Wrap(err, "reading multipart form")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening upload")
		}
		defer f.Close()
		src = f
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}
	if buf.Len() == 0 {
		return nil, errMissingUpload
	}
	return buf.Bytes(), nil
}

// attachment sends data as a file download.
func attachment(ctx echo.Context, name, contentType string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return ctx.Blob(http.StatusOK, contentType, data)
}

type SuccessResponse struct {
	Success string `json:"success"`
}
