package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
)

const userColumns = "id, username, name, role, password_hash, class, nisn, teacher_id, application_status, " +
	"internship_location, internship_start_date, internship_end_date, nip, subject, created_at, updated_at"

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedIDs []string, exec ...core.DBExecutor) error {
	var conds conditions
	conds.add("username = ?", username)
	if len(excludedIDs) > 0 {
		conds.add("id NOT IN (?)", excludedIDs)
	}
	q, args, err := conds.query("SELECT COUNT(*) FROM users", "")
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var count int
	if err = repo.getExec(exec).GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if count > 0 {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = newID(usr.ID)
	usr.CreatedAt, usr.UpdatedAt = usr.CreatedAt.UTC(), usr.UpdatedAt.UTC()
	if err := execNamed(ctx, repo.getExec(exec), insertQuery("users", userColumns), usr, nil); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var conds conditions
	switch {
	case filter.ID != "":
		conds.add("id = ?", filter.ID)
	case filter.Username != "":
		conds.add("username = ?", filter.Username)
	default:
		return user.User{}, user.ErrNotFound
	}
	q, args, err := conds.query("SELECT "+userColumns+" FROM users", "LIMIT 1")
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	var usr user.User
	if err = repo.getExec(exec).GetContext(ctx, &usr, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	var conds conditions
	if filter != nil {
		if filter.Search != "" {
			val := likePattern(filter.Search)
			conds.add("(name LIKE ? OR username LIKE ? OR nisn LIKE ? OR nip LIKE ?)", val, val, val, val)
		}
		if filter.Role != "" {
			conds.add("role = ?", filter.Role)
		}
		if filter.Class != "" {
			conds.add("class = ?", filter.Class)
		}
		if filter.TeacherID != "" {
			conds.add("teacher_id = ?", filter.TeacherID)
		}
		if filter.ApplicationStatus != "" {
			conds.add("application_status = ?", filter.ApplicationStatus)
		}
	}
	q, args, err := conds.query("SELECT "+userColumns+" FROM users", "ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	users := make([]user.User, 0)
	if err = repo.getExec(exec).SelectContext(ctx, &users, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.CreatedAt, usr.UpdatedAt = usr.CreatedAt.UTC(), usr.UpdatedAt.UTC()
	if err := execNamed(ctx, repo.getExec(exec), updateQuery("users", userColumns), usr, user.ErrNotFound); err != nil {
		if err == user.ErrNotFound {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return errors.Wrap(deleteByID(ctx, repo.getExec(exec), "users", ids), "deleting users")
}

func (repo userRepository) CountUsers(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.getExec(exec).GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return count, nil
}
