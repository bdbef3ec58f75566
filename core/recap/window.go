// Package recap builds the attendance, report and visit recaps over a date window
// and lays them out as sheets and paginated documents.
package recap

import (
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

type TimeRange string

const (
	Daily   TimeRange = "daily"
	Weekly  TimeRange = "weekly"
	Monthly TimeRange = "monthly"
)

var ErrInvalidTimeRange = errors.New("time range must be one of daily, weekly or monthly")

var rangeLabels = map[TimeRange]string{
	Daily:   "Harian",
	Weekly:  "Mingguan",
	Monthly: "Bulanan",
}

func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(core.CleanString(s, true /* lower */))
	if r == "" {
		return Daily, nil
	}
	if _, ok := rangeLabels[r]; !ok {
		return "", ErrInvalidTimeRange
	}
	return r, nil
}

// Label is the period name used in titles and file names.
func (r TimeRange) Label() string {
	if lbl, ok := rangeLabels[r]; ok {
		return lbl
	}
	return rangeLabels[Monthly]
}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// NewWindow returns the day, the Sunday-to-Saturday week or the calendar month holding anchor.
func NewWindow(r TimeRange, anchor core.Date) Window {
	switch r {
	case Daily:
		return Window{Start: anchor, End: anchor}
	case Weekly:
		start := anchor.AddDays(-int(anchor.Weekday()))
		return Window{Start: start, End: start.AddDays(6)}
	default:
		start := core.NewDate(anchor.Year(), anchor.Month(), 1)
		// day 0 of the next month is the last day of this one
		end := core.NewDate(anchor.Year(), anchor.Month()+1, 0)
		return Window{Start: start, End: end}
	}
}

func (w Window) Contains(d core.Date) bool {
	return d.Between(w.Start, w.End)
}
