package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli"

	"github.com/ericfisherdev/credgate/internal/application"
	"github.com/ericfisherdev/credgate/internal/domain/model"
)

var loginCmd = cli.Command{
	Name:      "login",
	Usage:     "check a username and password against the credential store",
	ArgsUsage: "[username]",
	Flags:     []cli.Flag{usernameFlag},
	Action: withRuntime(func(ctx context.Context, c *cli.Context, rt *runtime) error {
		p := newPrompter(os.Stdin)
		return runLogin(ctx, c, rt, p)
	}),
}

func runLogin(ctx context.Context, c *cli.Context, rt *runtime, p *prompter) error {
	username, err := usernameArg(c)
	if err != nil {
		if username, err = p.ask("User Name", false, nil); err != nil {
			return err
		}
	}
	password, err := p.ask("Password", true, nil)
	if err != nil {
		return err
	}

	result := rt.auth.Login(ctx, username, password)
	fmt.Fprintln(c.App.Writer, result.Message())
	if !result.Accepted {
		return cli.NewExitError("", 1)
	}
	return nil
}

var createCmd = cli.Command{
	Name:      "create",
	Usage:     "provision a new account in the account database",
	ArgsUsage: "[username]",
	Flags:     []cli.Flag{usernameFlag},
	Action: withRuntime(func(ctx context.Context, c *cli.Context, rt *runtime) error {
		return runCreate(ctx, c, rt, newPrompter(os.Stdin))
	}),
}

func runCreate(ctx context.Context, c *cli.Context, rt *runtime, p *prompter) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	password, err := p.confirmSecret("Password", model.ValidatePassword)
	if err != nil {
		return err
	}

	account, err := rt.accounts.Create(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Account %s created.\n", account.Username)
	return nil
}

var changePasswordCmd = cli.Command{
	Name:      "change-password",
	Usage:     "replace the password of an account",
	ArgsUsage: "[username]",
	Flags:     []cli.Flag{usernameFlag},
	Action: withRuntime(func(ctx context.Context, c *cli.Context, rt *runtime) error {
		return runChangePassword(ctx, c, rt, newPrompter(os.Stdin))
	}),
}

func runChangePassword(ctx context.Context, c *cli.Context, rt *runtime, p *prompter) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	oldPassword, err := p.ask("Current password", true, nil)
	if err != nil {
		return err
	}
	newPassword, err := p.confirmSecret("New password", model.ValidatePassword)
	if err != nil {
		return err
	}

	if err := rt.accounts.ChangePassword(ctx, username, oldPassword, newPassword); err != nil {
		if errors.Is(err, application.ErrAccessDenied) {
			return cli.NewExitError(application.RejectionMessage, 1)
		}
		return err
	}
	fmt.Fprintf(c.App.Writer, "Password for %s changed.\n", username)
	return nil
}

var disableCmd = cli.Command{
	Name:      "disable",
	Usage:     "exclude an account from login",
	ArgsUsage: "[username]",
	Flags:     []cli.Flag{usernameFlag},
	Action: withRuntime(func(ctx context.Context, c *cli.Context, rt *runtime) error {
		username, err := usernameArg(c)
		if err != nil {
			return err
		}
		if err := rt.accounts.Disable(ctx, username); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Account %s disabled.\n", username)
		return nil
	}),
}

var deleteCmd = cli.Command{
	Name:      "delete",
	Usage:     "remove an account from the account database",
	ArgsUsage: "[username]",
	Flags:     []cli.Flag{usernameFlag},
	Action: withRuntime(func(ctx context.Context, c *cli.Context, rt *runtime) error {
		return runDelete(ctx, c, rt)
	}),
}

func runDelete(ctx context.Context, c *cli.Context, rt *runtime) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	if err := rt.accounts.Delete(ctx, username); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Account %s deleted.\n", username)
	return nil
}

var listCmd = cli.Command{
	Name:  "list",
	Usage: "list provisioned accounts",
	Action: withRuntime(func(ctx context.Context, c *cli.Context, rt *runtime) error {
		accounts, err := rt.accounts.List(ctx)
		if err != nil {
			return err
		}
		return writeAccounts(c, accounts)
	}),
}

func writeAccounts(c *cli.Context, accounts []model.Account) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tSTATUS\tCREATED\tLAST LOGIN")
	for _, a := range accounts {
		lastLogin := "never"
		if a.LastLoginAt != nil {
			lastLogin = a.LastLoginAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Username, a.Status, a.CreatedAt.UTC().Format(time.RFC3339), lastLogin)
	}
	return w.Flush()
}
