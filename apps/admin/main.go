package main

import (
	"log"
	"os"

	"github.com/smkremaja/pkl/apps/shared"
	"github.com/smkremaja/pkl/core"
	logsvc "github.com/smkremaja/pkl/services/logger"
	"github.com/smkremaja/pkl/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	validate, _ := shared.NewValidator()

	// start CLI
	cli := commandLine{
		db:     db,
		svcs:   shared.NewServices(db, validate, conf),
		conf:   conf,
		logger: logger,
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := db.Close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
