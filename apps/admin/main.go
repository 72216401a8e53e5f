package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/kazi/apps/shared"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
	"github.com/trezcool/kazi/services/logger"
	"github.com/trezcool/kazi/storage/database"
	"github.com/trezcool/kazi/storage/database/inmem"
	"github.com/trezcool/kazi/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf, "admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "admin: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	validate, _ := shared.NewValidator()
	cli := commandLine{}

	// set up DB
	if conf.Database.Engine == database.EngineMemory {
		cli.usrSvc = user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), validate)
	} else {
		ctx := context.Background()
		if err = database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func() { _ = db.Close() }()

		cli.db = db.DB
		cli.usrSvc = user.NewService(sqlxrepos.NewUserRepository(db), validate)
	}

	// start CLI
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
