package main

import (
	"context"
	"fmt"

	"github.com/smkremaja/pkl/core/user"
)

type newUserArgs struct {
	role, username, name string
	class, nisn          string
	nip, subject         string
}

// addUser creates an account of any role.
func (cli *commandLine) addUser(a newUserArgs, pwd string) error {
	usr, err := cli.svcs.Users.Create(context.Background(), user.NewUser{
		Name:            a.name,
		Username:        a.username,
		Role:            a.role,
		Password:        pwd,
		PasswordConfirm: pwd,
		Class:           a.class,
		NISN:            a.nisn,
		NIP:             a.nip,
		Subject:         a.subject,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s %q created (%s)\n", usr.Role, usr.Username, usr.ID)
	return nil
}
