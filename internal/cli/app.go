// Package cli wires the todo store to the command line.
//
// Every command opens a session (config, logger, storage, metrics, store),
// rehydrates the persisted list, runs one thunk and flushes on the way out.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/idilsaglam/tada/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// App creates the CLI application. Output goes to stdout and errOut.
func App(stdout, errOut io.Writer) *cli.App {
	app := &cli.App{
		Name:      "todo",
		Usage:     "a tiny todo list",
		UsageText: "todo [global options] <command> [args]",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Description: `Examples:
   todo add "Buy milk"
   todo ls
   todo done 2
   todo rm 3`,
		Flags: globalFlags(),
		Commands: []*cli.Command{
			addCommand(),
			listCommand(),
			doneCommand(),
			removeCommand(),
			exportCommand(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				ui.Fail(c.App.ErrWriter, "unknown subcommand: "+c.Args().First())
				fmt.Fprintln(c.App.ErrWriter)
			}
			_ = cli.ShowAppHelp(c)
			return cli.Exit("", ExitUsage)
		},
		Writer:    stdout,
		ErrWriter: errOut,
		Before: func(c *cli.Context) error {
			ui.SetColorForcing(false, c.Bool("no-color"))
			return nil
		},
		OnUsageError: func(c *cli.Context, err error, _ bool) error {
			return usageError(c, err.Error())
		},
		// main maps the returned error to an exit code
		ExitErrHandler: func(*cli.Context, error) {},
	}
	for _, cmd := range app.Commands {
		cmd.OnUsageError = app.OnUsageError
	}
	return app
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			EnvVars: []string{"TADA_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "theme",
			Usage: "output theme: classic, neon, mono",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}
}

// Run executes args and returns the process exit code.
func Run(args []string) int {
	return ExitCode(App(os.Stdout, os.Stderr).Run(args))
}

// ExitCode maps an error returned by the app to an exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitError
}

// usageError prints msg in the failure style and returns exit code 2.
func usageError(c *cli.Context, msg string, hint ...string) error {
	return fail(c, ExitUsage, msg, hint...)
}

// runtimeError prints msg in the failure style and returns exit code 1.
func runtimeError(c *cli.Context, msg string) error {
	return fail(c, ExitError, msg)
}

func fail(c *cli.Context, code int, msg string, hint ...string) error {
	ui.Fail(c.App.ErrWriter, msg)
	for _, h := range hint {
		ui.Hint(c.App.ErrWriter, h)
	}
	return cli.Exit("", code)
}
