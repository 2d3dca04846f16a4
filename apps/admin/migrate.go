package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/elearn/storage"
	"github.com/trezcool/elearn/storage/database"
)

var (
	gooseRunFunc = goose.RunContext // mockable

	errNotPostgres = errors.New("migrations only apply to the postgres engine")
)

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.conf.Database.Engine != storage.EnginePostgres {
		return errNotPostgres
	}
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(ctx, args[0], db, database.MigrationsDir, arguments...)
}
