package main

import (
	"errors"

	"github.com/trezcool/goose"

	"github.com/trezcool/kazi/fs"
)

var (
	gooseRunFunc = goose.RunFS // mockable

	errNoDB = errors.New("migrations require the postgres engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDB
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.FS, appfs.MigrationsDir, arguments...)
}
