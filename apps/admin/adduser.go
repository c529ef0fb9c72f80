package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/user"
)

var errInactiveUser = errors.New("user is not active")

func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx := context.Background()
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return core.TranslateErrors(err, cli.translator)
	}
	if nu.TeacherID != "" {
		if _, err := cli.tchrSvc.Get(ctx, nu.TeacherID); err != nil {
			return err
		}
	}

	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	_, _ = fmt.Fprintf(cli.out, "user %s created (%s)\n", usr.ID, usr.Role)
	return nil
}

// token prints a signed API token for the user.
func (cli *commandLine) token(email string) error {
	usr, err := cli.usrSvc.GetByEmail(context.Background(), email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return errInactiveUser
	}

	claims := user.NewClaims(usr, cli.conf)
	token, err := user.GenerateToken(claims, cli.conf.SecretKey)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, token)
	return nil
}
