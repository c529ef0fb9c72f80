package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/observa/apps/api/echo"
	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
	"github.com/trezcool/observa/core/user"
	emailsvc "github.com/trezcool/observa/services/email"
	logsvc "github.com/trezcool/observa/services/logger"
	recommendersvc "github.com/trezcool/observa/services/recommender"
	"github.com/trezcool/observa/storage/database"
	sqlxrepos "github.com/trezcool/observa/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up repos
	evalRepo := sqlxrepos.NewEvaluationRepository(db)
	criteriaRepo := sqlxrepos.NewCriteriaRepository(db)
	usrRepo := sqlxrepos.NewUserRepository(db)
	tchrRepo := sqlxrepos.NewTeacherRepository(db)
	asgmtRepo := sqlxrepos.NewAssignmentRepository(db)

	if n, err := evaluation.SeedCriteria(context.Background(), criteriaRepo); err != nil {
		dbLogger.Fatal(fmt.Sprintf("seeding criteria: %v", err), err)
	} else if n > 0 {
		dbLogger.Info(fmt.Sprintf("%d criteria seeded", n))
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var hooks []evaluation.CompletionHook
	if conf.Recommender.Enabled {
		hooks = append(hooks, evaluation.NewRecommendationBridge(recommendersvc.NewClient(conf.Recommender), evalRepo))
	}
	hooks = append(hooks, evaluation.NewTeacherNotifier(tchrRepo, usrRepo, mailSvc))

	evalSvc := evaluation.NewService(evaluation.ServiceDeps{
		DB:             db,
		Repo:           evalRepo,
		CriteriaRepo:   criteriaRepo,
		UserRepo:       usrRepo,
		TeacherRepo:    tchrRepo,
		AssignmentRepo: asgmtRepo,
		Validate:       validate,
		Translator:     translator,
		Logger:         logger,
		Hooks:          hooks,
		AsyncHooks:     conf.AsyncHooks,
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			EvaluationSvc: evalSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, "up"); err != nil {
		return nil, err
	}
	return db, nil
}
