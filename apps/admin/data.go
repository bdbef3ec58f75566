package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/recap"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/services/document"
	"github.com/smkremaja/pkl/services/spreadsheet"
)

var errUnknownList = errors.New("unknown list, expected students, teachers, applications or guidance")
var errUnknownRecap = errors.New("unknown recap, expected attendances, reports or visits")

func (cli *commandLine) seed() error {
	seeded, err := cli.svcs.Seed(context.Background())
	if err != nil {
		return err
	}
	if seeded {
		fmt.Fprintln(cli.out, "Default accounts created.")
	} else {
		fmt.Fprintln(cli.out, "Database is not empty, nothing to seed.")
	}
	return nil
}

// importRoster creates accounts from the first sheet of an .xlsx file.
func (cli *commandLine) importRoster(role, path string) error {
	role = core.CleanString(role, true /* lower */)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheet, err := spreadsheet.ReadFirstSheet(f)
	if err != nil {
		return err
	}
	rows, err := user.ParseImportRows(role, sheet)
	if err != nil {
		return err
	}
	res, err := cli.svcs.Users.Import(context.Background(), role, rows)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d account(s) imported.\n", len(res.Imported))
	for _, rej := range res.Rejected {
		fmt.Fprintf(cli.out, "  row %d: %s\n", rej.Row, rej.Reason)
	}
	return nil
}

func (cli *commandLine) export(list, class, out string) error {
	ctx := context.Background()
	var rc recap.Recap
	var err error
	switch core.CleanString(list, true /* lower */) {
	case "students":
		rc, err = cli.svcs.Recaps.Students(ctx, &user.QueryFilter{Class: class})
	case "teachers":
		rc, err = cli.svcs.Recaps.Teachers(ctx)
	case "applications":
		rc, err = cli.svcs.Recaps.Applications(ctx, nil)
	case "guidance":
		rc, err = cli.svcs.Recaps.Guidance(ctx, class)
	default:
		return errUnknownList
	}
	if err != nil {
		return err
	}
	return cli.writeRecap(rc, out)
}

func (cli *commandLine) recap(kind, timeRange, date, class, out string) error {
	req := recap.Request{Range: recap.TimeRange(timeRange), Class: class}
	if date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return err
		}
		req.Date = d
	}

	ctx := context.Background()
	var rc recap.Recap
	var err error
	switch core.CleanString(kind, true /* lower */) {
	case "attendances":
		rc, err = cli.svcs.Recaps.Attendances(ctx, req)
	case "reports":
		rc, err = cli.svcs.Recaps.Reports(ctx, req)
	case "visits":
		rc, err = cli.svcs.Recaps.Visits(ctx, req)
	default:
		return errUnknownRecap
	}
	if err != nil {
		return err
	}
	return cli.writeRecap(rc, out)
}

// writeRecap writes rc as a pdf document or, for any other extension, an xlsx workbook.
func (cli *commandLine) writeRecap(rc recap.Recap, out string) error {
	var buf bytes.Buffer
	if strings.EqualFold(filepath.Ext(out), document.Extension) {
		doc, err := rc.Document()
		if err != nil {
			return err
		}
		if err = document.Render(&buf, doc); err != nil {
			return err
		}
	} else if err := spreadsheet.Write(&buf, rc.Sheet); err != nil {
		return err
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o640); err != nil {
		return errors.Wrap(err, "writing "+out)
	}
	fmt.Fprintf(cli.out, "%s written.\n", out)
	return nil
}
