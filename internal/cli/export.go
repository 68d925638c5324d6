package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Print all todos as JSON or YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: json, yaml",
				Value:   "json",
			},
		},
		Action: func(c *cli.Context) error {
			format := strings.ToLower(c.String("format"))
			if format != "json" && format != "yaml" {
				return usageError(c, fmt.Sprintf("export: unknown format %q (want json or yaml)", c.String("format")))
			}
			return withSession(c, func(s *session) error {
				if err := writeTodos(c.App.Writer, format, state.GetTodos(s.store.GetState())); err != nil {
					return runtimeError(c, "export: "+err.Error())
				}
				return nil
			})
		},
	}
}

func writeTodos(w io.Writer, format string, todos []model.Todo) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(todos); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(todos); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
