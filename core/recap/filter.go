package recap

import (
	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
)

// Record is a dated entry that may belong to a student.
type Record interface {
	RecordDate() core.Date
	RecordStudentID() string
}

// Criteria selects records by date window, and optionally by student and class.
type Criteria struct {
	Window    Window
	StudentID string
	Class     string
}

// Filter returns the records matching c, in their original order.
// Class membership is resolved through roster; a record whose student is not in the roster
// does not match when a class is set.
func Filter[T Record](records []T, c Criteria, roster map[string]user.User) []T {
	matched := make([]T, 0, len(records))
	for _, rec := range records {
		if !c.Window.Contains(rec.RecordDate()) {
			continue
		}
		if c.StudentID != "" && rec.RecordStudentID() != c.StudentID {
			continue
		}
		if c.Class != "" {
			student, ok := roster[rec.RecordStudentID()]
			if !ok || student.Class != c.Class {
				continue
			}
		}
		matched = append(matched, rec)
	}
	return matched
}
