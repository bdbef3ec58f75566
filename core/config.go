package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Path string
	}

	ImportConfig struct {
		StudentPassword string
		TeacherPassword string
	}

	BackupConfig struct {
		Dir      string
		Schedule string // cron spec; empty disables scheduled backups
	}

	Config struct {
		AppName          string
		Build            string
		Env              string
		Debug            bool
		TestMode         bool
		SecretKey        string
		RollbarToken     string
		Location         *time.Location
		WipeConfirmation string
		Server           ServerConfig
		Database         DatabaseConfig
		Import           ImportConfig
		Backup           BackupConfig
	}
)

// Today returns the current calendar date in the configured time zone.
func (conf *Config) Today() Date {
	return DateOf(NowFunc().In(conf.Location))
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the ENV value: DEV (local; default), TEST, QA or PROD.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "PKL SMK")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "3b!w9s-pkl)x7#r=2k&u0vq$+mzh8(d5c^t@j4e1o6yfa%lg")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("timezone", "Asia/Jakarta")
	v.SetDefault("wipeConfirmation", "HAPUS")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.path", "pkl.db")
	v.SetDefault("import.studentPassword", "student123")
	v.SetDefault("import.teacherPassword", "teacher123")
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.schedule", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		log.Printf("config: unknown timezone %q, falling back to UTC", v.GetString("timezone"))
		loc = time.UTC
	}

	return &Config{
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Location:         loc,
		WipeConfirmation: v.GetString("wipeConfirmation"),
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Import: ImportConfig{
			StudentPassword: v.GetString("import.studentPassword"),
			TeacherPassword: v.GetString("import.teacherPassword"),
		},
		Backup: BackupConfig{
			Dir:      v.GetString("backup.dir"),
			Schedule: v.GetString("backup.schedule"),
		},
	}
}
