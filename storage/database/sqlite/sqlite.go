// Package sqliterepos implements the core repositories on SQLite through sqlx.
package sqliterepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
)

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

// trapNoRowsErr maps sql.ErrNoRows to notFound.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// placeholders turns "a, b" into ":a, :b".
func placeholders(cols string) string {
	fields := strings.Split(cols, ",")
	for i, f := range fields {
		fields[i] = ":" + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}

// assignments turns "id, a, b" into "a = :a, b = :b", leaving the id out.
func assignments(cols string) string {
	fields := strings.Split(cols, ",")
	sets := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "id" {
			continue
		}
		sets = append(sets, f+" = :"+f)
	}
	return strings.Join(sets, ", ")
}

func insertQuery(table, cols string) string {
	return "INSERT INTO " + table + " (" + cols + ") VALUES (" + placeholders(cols) + ")"
}

func updateQuery(table, cols string) string {
	return "UPDATE " + table + " SET " + assignments(cols) + " WHERE id = :id"
}

// conditions accumulates the AND-ed clauses of a WHERE.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, args ...interface{}) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

func (c *conditions) addDateRange(col string, from, to core.Date) {
	if !from.IsZero() {
		c.add(col+" >= ?", from)
	}
	if !to.IsZero() {
		c.add(col+" <= ?", to)
	}
}

// query builds a SELECT, expanding slice arguments of IN (?) clauses.
func (c *conditions) query(base, suffix string) (string, []interface{}, error) {
	q := base
	if len(c.clauses) > 0 {
		q += " WHERE " + strings.Join(c.clauses, " AND ")
	}
	q += " " + suffix
	if len(c.args) == 0 {
		return q, nil, nil
	}
	return sqlx.In(q, c.args...)
}

func likePattern(search string) string {
	return "%" + search + "%"
}

func execNamed(ctx context.Context, exec core.DBExecutor, query string, arg interface{}, notFound error) error {
	res, err := exec.NamedExecContext(ctx, query, arg)
	if err != nil {
		return err
	}
	if notFound == nil {
		return nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func deleteByID(ctx context.Context, exec core.DBExecutor, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx, q, args...)
	return err
}

// stringList is a []string stored as a JSON array.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *stringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = stringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("cannot scan %T into a string list", src)
	}
	list := make([]string, 0)
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.Wrap(err, "decoding string list")
	}
	*l = list
	return nil
}
