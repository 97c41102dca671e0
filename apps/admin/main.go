package main

import (
	"fmt"
	"log"
	"os"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
	emailsvc "github.com/saadqamar22/LMS-2.0-sub000/services/email"
	logsvc "github.com/saadqamar22/LMS-2.0-sub000/services/logger"
	"github.com/saadqamar22/LMS-2.0-sub000/storage/database"
	sqlxrepos "github.com/saadqamar22/LMS-2.0-sub000/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db: db.DB,
		usrSvc: user.NewService(
			sqlxrepos.NewUserRepository(db),
			sqlxrepos.NewTransactor(db),
			emailsvc.NewConsoleService(conf, logger),
			logger,
			conf,
		),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
