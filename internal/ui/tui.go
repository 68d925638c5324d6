package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
)

// StateChangedMsg tells the view the store has a new state.
type StateChangedMsg struct{}

// thunkDoneMsg reports the result of a thunk started from the view.
type thunkDoneMsg struct{ err error }

// viewMode picks which selector feeds the list.
type viewMode int

const (
	viewAll viewMode = iota
	viewIncomplete
	viewCompleted
)

func (v viewMode) String() string {
	switch v {
	case viewIncomplete:
		return "incomplete"
	case viewCompleted:
		return "completed"
	default:
		return "all"
	}
}

// todoItem adapts model.Todo to bubbles/list.Item.
type todoItem struct {
	todo  model.Todo
	fresh bool
}

func (i todoItem) FilterValue() string { return i.todo.Text }

// itemDelegate renders one todo per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Text
	age := staleStyle.Render("●")
	if it.fresh {
		age = freshStyle.Render("●")
	}
	if it.todo.IsCompleted {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
		age = " "
	}
	created := mutedStyle.Render(it.todo.CreatedAt.Local().Format("Jan 02"))

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s  %s", prefix, box, age, text, created)
}

var (
	completeBind = key.NewBinding(key.WithKeys(" ", "c"), key.WithHelp("space", "complete"))
	removeBind   = key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "remove"))
	addBind      = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	viewBind     = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "view"))
)

// Model is the interactive list. It renders selector output and turns key
// presses into thunks run against the store.
type Model struct {
	ctx   context.Context
	store *state.Store
	load  state.Thunk
	now   func() time.Time

	list    list.Model
	ti      textinput.Model
	adding  bool
	addErr  string
	mode    viewMode
	loading bool
	status  string

	width, height int
}

// NewModel builds the view over store. load runs once when the program starts.
func NewModel(ctx context.Context, store *state.Store, load state.Thunk) Model {
	l := list.New(nil, itemDelegate{}, 76, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{completeBind, removeBind, addBind, viewBind}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter new todo here!"
	ti.CharLimit = 200

	m := Model{
		ctx:    ctx,
		store:  store,
		load:   load,
		now:    time.Now,
		list:   l,
		ti:     ti,
		width:  80,
		height: 24,
	}
	m.sync()
	return m
}

func (m Model) Init() tea.Cmd {
	if m.load == nil {
		return nil
	}
	return m.run(m.load)
}

func (m Model) run(t state.Thunk) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		return thunkDoneMsg{err: store.Run(ctx, t)}
	}
}

// sync rebuilds the list from the store through the selectors.
func (m *Model) sync() tea.Cmd {
	st := m.store.GetState()
	m.loading = state.GetTodosLoading(st)

	var todos []model.Todo
	switch m.mode {
	case viewIncomplete:
		todos = state.GetIncompleteTodos(st)
	case viewCompleted:
		todos = state.GetCompletedTodos(st)
	default:
		todos = state.GetTodos(st)
	}

	now := m.now()
	items := make([]list.Item, 0, len(todos))
	for _, td := range todos {
		items = append(items, todoItem{todo: td, fresh: td.IsFresh(now)})
	}

	done, pending := state.CountTodos(st)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %s",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("View"), m.mode,
	)
	return m.list.SetItems(items)
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width-4, m.height-4)
		return m, nil
	case StateChangedMsg:
		return m, m.sync()
	case thunkDoneMsg:
		m.status = ""
		switch {
		case errors.Is(msg.err, state.ErrDuplicateText):
			m.status = errorStyle.Render("That todo already exists")
		case msg.err != nil:
			m.status = errorStyle.Render(msg.err.Error())
		}
		return m, m.sync()
	}

	// add mode
	if m.adding {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "enter":
				text := strings.TrimSpace(m.ti.Value())
				if text == "" {
					m.addErr = "Text cannot be empty"
					return m, nil
				}
				m.adding, m.addErr = false, ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, m.run(state.AddUniqueTodoRequest(text))
			case "esc":
				m.adding, m.addErr = false, ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	// while filtering, keys belong to the filter input
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok && !m.loading {
		switch {
		case k.String() == "q" || k.String() == "esc":
			return m, tea.Quit
		case key.Matches(k, completeBind):
			if td, ok := m.selected(); ok {
				return m, m.run(state.MarkTodoAsCompletedRequest(td.ID))
			}
			return m, nil
		case key.Matches(k, removeBind):
			if td, ok := m.selected(); ok {
				return m, m.run(state.RemoveTodoRequest(td.ID))
			}
			return m, nil
		case key.Matches(k, addBind):
			m.adding = true
			m.ti.SetValue("")
			return m, m.ti.Focus()
		case key.Matches(k, viewBind):
			m.mode = (m.mode + 1) % 3
			return m, m.sync()
		}
	}
	if k, ok := msg.(tea.KeyMsg); ok && m.loading && k.String() == "q" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return frameStyle.Render(mutedStyle.Render("Loading..."))
	}

	listHeight := m.height - 4
	if m.adding {
		listHeight = m.height - 8
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(m.width-4, listHeight)

	content := m.list.View()
	if m.adding {
		title := "Create todo"
		if m.addErr != "" {
			title += "  " + errorStyle.Render(m.addErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	if m.status != "" {
		content += "\n" + m.status
	}
	return frameStyle.Render(content)
}

// Run starts the interactive list and blocks until the user quits.
// Store changes from any goroutine re-render the view.
func Run(ctx context.Context, store *state.Store, load state.Thunk) error {
	p := tea.NewProgram(NewModel(ctx, store, load), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := store.Subscribe(func() { p.Send(StateChangedMsg{}) })
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
