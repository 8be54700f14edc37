package main

import (
	"context"
	"time"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/user"
)

// addUser updates or creates an active user with role.
func (cli *commandLine) addUser(uname, email, pwd, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: uname})
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		usr = user.User{
			Username:  uname,
			FirstName: uname,
			CreatedAt: now,
		}
	}
	usr.Email = email
	usr.Role = role
	usr.Status = user.StatusActive
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
