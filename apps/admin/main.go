package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/user"
	logsvc "github.com/coding7860/sparkminds-backend/services/logger"
	"github.com/coding7860/sparkminds-backend/storage/database"
	boiledrepos "github.com/coding7860/sparkminds-backend/storage/database/boiledrepos"
	inmemdb "github.com/coding7860/sparkminds-backend/storage/database/inmem"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger("ADMIN", conf)

	var (
		db      *sql.DB
		usrRepo user.Repository
	)
	if conf.Database.Driver == database.DriverMemory {
		logger.Warn("using the in-memory database: changes are lost on exit")
		usrRepo = inmemdb.NewUserRepository(inmemdb.NewDB())
	} else {
		var err error
		if db, err = database.Open(conf); err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func() { _ = db.Close() }()
		usrRepo = boiledrepos.NewUserRepository(db)
	}

	cli := commandLine{
		db:      db,
		usrRepo: usrRepo,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
