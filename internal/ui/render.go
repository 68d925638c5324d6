package ui

import (
	"fmt"
	"time"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
)

const maxTextWidth = 80

// ListLines renders the list for the plain panel. Item numbers are the
// 1-based positions in the full list, in both flat and grouped layouts, so
// they can be passed to `done` and `rm`.
func ListLines(st model.AppState, now time.Time, group bool) []string {
	t := Current()
	done, pending := state.CountTodos(st)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		C(t.Title, "Todos"),
		C(t.Success, symCheck), done,
		C(t.Pending, "•"), pending,
		C(t.Accent, "Total"), done+pending,
	)

	lines := []string{header, C(t.Muted, ProgressBar(done, done+pending, 28)), ""}
	if state.GetTodosLoading(st) {
		return append(lines, C(t.Muted, "Loading..."))
	}

	positions := make(map[string]int, len(st.Todos))
	for i, td := range state.GetTodos(st) {
		positions[td.ID] = i + 1
	}
	if group {
		lines = append(lines, section("Incomplete", state.GetIncompleteTodos(st), positions, now)...)
		lines = append(lines, "")
		lines = append(lines, section("Completed", state.GetCompletedTodos(st), positions, now)...)
	} else {
		todos := state.GetTodos(st)
		if len(todos) == 0 {
			lines = append(lines, C(t.Muted, "no items"))
		}
		for _, td := range todos {
			lines = append(lines, ItemLine(positions[td.ID], td, now))
		}
	}
	lines = append(lines, "")
	lines = append(lines, C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	return lines
}

func section(title string, todos []model.Todo, positions map[string]int, now time.Time) []string {
	t := Current()
	lines := []string{C(t.Accent, title)}
	if len(todos) == 0 {
		return append(lines, C(t.Muted, "(none)"))
	}
	for _, td := range todos {
		lines = append(lines, ItemLine(positions[td.ID], td, now))
	}
	return lines
}

// ItemLine renders one todo: number, checkbox, text, creation date and,
// for incomplete todos, the fresh/stale marker.
func ItemLine(pos int, td model.Todo, now time.Time) string {
	t := Current()
	box, color := t.BoxUnchecked, t.Muted
	if td.IsCompleted {
		box, color = t.BoxChecked, t.Success
	}
	text := td.Text
	if r := []rune(text); len(r) > maxTextWidth {
		text = string(r[:maxTextWidth-3]) + "..."
	}

	line := fmt.Sprintf("%s %s %s  %s",
		C(dim, fmt.Sprintf("%2d.", pos)),
		C(color, box),
		text,
		C(t.Muted, "created "+td.CreatedAt.Local().Format("2006-01-02")),
	)
	if !td.IsCompleted {
		line += " " + FreshnessMark(td, now)
	}
	return line
}

// FreshnessMark is the fresh/stale indicator for an incomplete todo.
func FreshnessMark(td model.Todo, now time.Time) string {
	t := Current()
	if td.IsFresh(now) {
		return C(t.Fresh, t.SymFresh)
	}
	return C(t.Stale, t.SymStale)
}
