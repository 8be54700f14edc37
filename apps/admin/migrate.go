package main

import (
	"github.com/coding7860/sparkminds-backend/storage/database"
)

var gooseRunFunc = database.RunMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQL
	}
	return gooseRunFunc(args[0], cli.db, args[1:]...)
}
