package main

import (
	"context"
	"fmt"

	"github.com/trezcool/kazi/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, pwd string, role user.Role, email string) error {
	usr, err := cli.usrSvc.Upsert(context.Background(), uname, pwd, role, email)
	if err != nil {
		return err
	}
	fmt.Printf("%s %q saved\n", usr.Role, usr.Username)
	return nil
}
