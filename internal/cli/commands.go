package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
	"github.com/idilsaglam/tada/internal/ui"
)

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a new todo (text can be multiple words)",
		ArgsUsage: "<text...>",
		Action: func(c *cli.Context) error {
			text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if text == "" {
				return usageError(c, "usage: todo add <text...>")
			}
			return withSession(c, func(s *session) error {
				err := s.store.Run(c.Context, state.AddUniqueTodoRequest(text))
				switch {
				case errors.Is(err, state.ErrDuplicateText):
					return usageError(c, "add: "+err.Error(), "run `todo ls` to see your todos")
				case err != nil:
					return usageError(c, "add: "+err.Error())
				}
				ui.OK(c.App.Writer, "added")
				return nil
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "ls",
		Aliases: []string{"list"},
		Usage:   "List todos",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "group", Aliases: []string{"g"}, Usage: "group output by incomplete/completed"},
			&cli.BoolFlag{Name: "plain", Aliases: []string{"p"}, Usage: "print the list instead of opening the interactive view"},
		},
		Action: func(c *cli.Context) error {
			return withSession(c, func(s *session) error {
				if c.Bool("plain") || !ui.IsTerminal(c.App.Writer) {
					ui.Panel(c.App.Writer, ui.ListLines(s.store.GetState(), time.Now(), c.Bool("group")))
					return nil
				}
				if err := ui.Run(c.Context, s.store, s.load()); err != nil {
					return runtimeError(c, "ui: "+err.Error())
				}
				return nil
			})
		},
	}
}

func doneCommand() *cli.Command {
	return &cli.Command{
		Name:      "done",
		Usage:     "Mark the todo at a 1-based index as completed",
		ArgsUsage: "<index>",
		Action: func(c *cli.Context) error {
			return withIndexedTodo(c, "done", func(s *session, td model.Todo) error {
				if td.IsCompleted {
					ui.OK(c.App.Writer, "already completed")
					return nil
				}
				if err := s.store.Run(c.Context, state.MarkTodoAsCompletedRequest(td.ID)); err != nil {
					return runtimeError(c, "done: "+err.Error())
				}
				ui.OK(c.App.Writer, "completed")
				return nil
			})
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove the todo at a 1-based index",
		ArgsUsage: "<index>",
		Action: func(c *cli.Context) error {
			return withIndexedTodo(c, "rm", func(s *session, td model.Todo) error {
				if err := s.store.Run(c.Context, state.RemoveTodoRequest(td.ID)); err != nil {
					return runtimeError(c, "rm: "+err.Error())
				}
				ui.OK(c.App.Writer, "removed")
				return nil
			})
		},
	}
}

// withIndexedTodo resolves the single <index> argument against the list
// order shown by `ls` and hands the todo to fn.
func withIndexedTodo(c *cli.Context, name string, fn func(*session, model.Todo) error) error {
	if c.NArg() != 1 {
		return usageError(c, fmt.Sprintf("usage: todo %s <index>", name))
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return usageError(c, fmt.Sprintf("%s: not a number: %s", name, c.Args().First()))
	}
	return withSession(c, func(s *session) error {
		todos := state.GetTodos(s.store.GetState())
		if n < 1 || n > len(todos) {
			return usageError(c,
				fmt.Sprintf("index out of range: have %d, got %d", len(todos), n),
				"run `todo ls` to see valid indexes")
		}
		return fn(s, todos[n-1])
	})
}
