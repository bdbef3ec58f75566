package main

import (
	"context"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	return cli.svcs.Users.ResetPassword(context.Background(), uname, pwd)
}
