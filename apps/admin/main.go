package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
	logsvc "github.com/trezcool/observa/services/logger"
	"github.com/trezcool/observa/storage/database"
	sqlxrepos "github.com/trezcool/observa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:           db,
		conf:         conf,
		validate:     validate,
		translator:   translator,
		usrSvc:       user.NewService(sqlxrepos.NewUserRepository(db)),
		tchrSvc:      teacher.NewService(sqlxrepos.NewTeacherRepository(db), sqlxrepos.NewAssignmentRepository(db)),
		criteriaRepo: sqlxrepos.NewCriteriaRepository(db),
		out:          os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
