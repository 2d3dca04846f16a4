package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	dig_container "github.com/trezcool/elearn/apps/api/di/dig"
	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/user"
	"github.com/trezcool/elearn/storage"
	"github.com/trezcool/elearn/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var code int
	c := dig_container.New(core.NewConfig)
	errAndDie(c.Invoke(func(conf *core.Config, repos *storage.Repositories, usrSvc *user.Service) {
		ctx := context.Background()
		defer func() {
			if err := repos.Close(ctx); err != nil {
				logger.Printf("closing database: %v", err)
			}
		}()

		cli := commandLine{
			conf:   conf,
			usrSvc: usrSvc,
			openDB: func() (*sql.DB, error) { return database.Open(conf) },
			out:    os.Stdout,
		}
		if err := cli.run(ctx, os.Args); err != nil {
			if err != errHelp {
				logger.Printf("\nerror: %s\n", err)
			}
			code = 1
		}
	}))
	os.Exit(code)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
