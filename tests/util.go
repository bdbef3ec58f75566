package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata" // Asia/Jakarta on hosts without zoneinfo

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/smkremaja/pkl/apps/shared"
	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
	"github.com/smkremaja/pkl/storage/database"
)

// PrepareDB opens a migrated database in a temporary directory, closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenPath(filepath.Join(t.TempDir(), "pkl.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("db.Close() failed: %v", err)
		}
	})
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// NewConfig returns a test configuration that does not read the environment.
func NewConfig() *core.Config {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.UTC
	}
	return &core.Config{
		AppName:          "PKL SMK",
		Build:            "test",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "test-secret",
		Location:         loc,
		WipeConfirmation: "HAPUS",
		Server: core.ServerConfig{
			Address:                   ":8000",
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: time.Hour,
		},
		Import: core.ImportConfig{
			StudentPassword: "student123",
			TeacherPassword: "teacher123",
		},
	}
}

// Setup prepares a database and builds every service over it.
func Setup(t *testing.T) (*sqlx.DB, *shared.Services, *core.Config) {
	t.Helper()
	db := PrepareDB(t)
	conf := NewConfig()
	validate, _ := shared.NewValidator()
	return db, shared.NewServices(db, validate, conf), conf
}

// FixturePassword is the password of the users created without one.
const FixturePassword = "fixture123"

var (
	fixtureHash     []byte
	fixtureHashOnce sync.Once
)

// fixturePasswordHash hashes FixturePassword once, at the lowest cost.
func fixturePasswordHash(t *testing.T) []byte {
	t.Helper()
	fixtureHashOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hashing fixture password: %v", err)
		}
		fixtureHash = hash
	})
	return fixtureHash
}

// CreateUser stores usr. Without pwd, the user gets FixturePassword.
func CreateUser(t *testing.T, repo user.Repository, usr user.User, pwd string) user.User {
	t.Helper()
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = usr.CreatedAt
	if usr.IsStudent() && usr.ApplicationStatus == "" {
		usr.ApplicationStatus = user.StatusNone
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	} else if len(usr.PasswordHash) == 0 {
		usr.PasswordHash = fixturePasswordHash(t)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAdmin(t *testing.T, repo user.Repository, name, uname string, pwd ...string) user.User {
	t.Helper()
	return CreateUser(t, repo, user.User{Name: name, Username: uname, Role: user.RoleAdmin}, firstOrEmpty(pwd))
}

func CreateTeacher(t *testing.T, repo user.Repository, name, uname string, pwd ...string) user.User {
	t.Helper()
	return CreateUser(t, repo, user.User{
		Name:     name,
		Username: uname,
		Role:     user.RoleTeacher,
		NIP:      uname,
		Subject:  "Komputer",
	}, firstOrEmpty(pwd))
}

func CreateStudent(t *testing.T, repo user.Repository, name, uname, class, teacherID string, pwd ...string) user.User {
	t.Helper()
	return CreateUser(t, repo, user.User{
		Name:      name,
		Username:  uname,
		Role:      user.RoleStudent,
		NISN:      uname,
		Class:     class,
		TeacherID: teacherID,
	}, firstOrEmpty(pwd))
}

func firstOrEmpty(s []string) string {
	if len(s) > 0 {
		return s[0]
	}
	return ""
}
