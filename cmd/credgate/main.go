// Command credgate serves the credential store over HTTP and manages the
// accounts behind it.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"
)

// Version is overridden at build time.
var Version = "dev"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "credgate"
	app.Version = Version
	app.Usage = "validate username/password pairs against a credential store"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging (overrides CREDGATE_LOG_LEVEL)",
		},
	}
	app.Commands = []cli.Command{
		serveCmd,
		loginCmd,
		createCmd,
		changePasswordCmd,
		disableCmd,
		deleteCmd,
		listCmd,
	}
	return app
}

// usernameArg returns the --username flag or the first positional argument.
func usernameArg(c *cli.Context) (string, error) {
	if u := c.String("username"); u != "" {
		return u, nil
	}
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	return "", fmt.Errorf("%s: username is required", c.Command.Name)
}

var usernameFlag = cli.StringFlag{
	Name:  "username, u",
	Usage: "account username",
}
