package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/apps/api/echo"
	"github.com/trezcool/kazi/apps/shared"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/analytics"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
	"github.com/trezcool/kazi/fs"
	"github.com/trezcool/kazi/services/email"
	"github.com/trezcool/kazi/services/events"
	"github.com/trezcool/kazi/services/logger"
	"github.com/trezcool/kazi/storage/database"
	"github.com/trezcool/kazi/storage/database/inmem"
	"github.com/trezcool/kazi/storage/database/sqlx"
	"github.com/trezcool/kazi/storage/files"
	"github.com/trezcool/kazi/storage/session"
)

type publisher interface {
	project.EventPublisher
	io.Closer
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	zl, err := logsvc.NewZap(conf, "api")
	if err != nil {
		return err
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	dbLogger.Enable(!conf.Debug)

	validate, translator := shared.NewValidator()

	// set up repositories
	var (
		usrRepo  user.Repository
		projRepo project.Repository
	)
	switch conf.Database.Engine {
	case database.EngineMemory:
		logger.Warn("using the in-memory database: data is lost on shutdown")
		db := inmemdb.Open()
		usrRepo = inmemdb.NewUserRepository(db)
		projRepo = inmemdb.NewProjectRepository(db)
	default:
		if err = database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		if err = database.Migrate(db); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
		usrRepo = sqlxrepos.NewUserRepository(db)
		projRepo = sqlxrepos.NewProjectRepository(db)
	}

	// set up stores
	store, err := files.New(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}

	var revoker session.Revoker
	if conf.Redis.Addr != "" {
		rdb := session.NewRedisClient(conf.Redis)
		defer func() { _ = rdb.Close() }()
		revoker = session.NewRedisRevoker(rdb)
	} else {
		revoker = session.NewMemoryRevoker()
	}

	// set up services
	var events publisher
	if len(conf.Kafka.Brokers) > 0 {
		events = eventsvc.NewKafkaPublisher(conf.Kafka, logger)
	} else {
		events = eventsvc.NewLogPublisher(logger)
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing event publisher: %v", err), err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(usrRepo, validate)
	projSvc := project.NewService(projRepo, store, events, validate, logger)
	analyticsSvc := analytics.NewService(projSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, !conf.Debug, logger)

	created, err := usrSvc.SeedAdmin(ctx, conf.Admin.Username, conf.Admin.Password)
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding admin: %v", err), err)
	}
	if created {
		logger.Info(fmt.Sprintf("Admin %q created", conf.Admin.Username))
	}

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
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			ProjectSvc:   projSvc,
			AnalyticsSvc: analyticsSvc,
			MailSvc:      mailSvc,
			Revoker:      revoker,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
	}
	return nil
}
