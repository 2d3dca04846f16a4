package main

import (
	"context"
	"fmt"

	"github.com/trezcool/elearn/core/user"
)

// addUser registers a new user.User, applying the same checks as the registration form.
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	usr, err := cli.usrSvc.Register(ctx, nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "created %s %s <%s>\n", usr.Role, usr.FullName(), usr.Email)
	return nil
}
