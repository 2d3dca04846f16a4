package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// resetPassword sets the password of the user owning email. The password policy is not enforced.
func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	return cli.usrSvc.SetPassword(ctx, email, pwd)
}

// resetLink prints the link the user owning email would receive from the forgot password page.
func (cli *commandLine) resetLink(ctx context.Context, email string) error {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := cli.usrSvc.MakeResetToken(usr)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	_, _ = fmt.Fprintf(cli.out, "%s/reset-password/%s\n", cli.conf.FrontendBaseURL, token)
	return nil
}
