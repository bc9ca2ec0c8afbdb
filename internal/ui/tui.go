// Package ui renders todos in the terminal and drives the interactive client.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todo-tracker/backend/internal/models"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TodoAPI is the set of procedures the interface calls.
type TodoAPI interface {
	GetTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, input models.CreateTodoInput) (*models.Todo, error)
	UpdateTodo(ctx context.Context, input models.UpdateTodoInput) (*models.Todo, error)
	ToggleTodo(ctx context.Context, id uint) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id uint) (bool, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeTitle
	modeDescription
)

type (
	todosLoadedMsg struct{ todos []models.Todo }
	todoCreatedMsg struct{ todo models.Todo }
	todoChangedMsg struct{ todo models.Todo }
	todoDeletedMsg struct {
		id      uint
		removed bool
	}
	errMsg struct {
		action string
		err    error
	}
)

type keyMap struct {
	add, edit, toggle, remove, refresh, quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.add, k.edit, k.toggle, k.remove, k.refresh}
}

// Model is the bubbletea model of the interactive client. Every change goes
// through the API; the local list is reconciled with the records it returns.
type Model struct {
	api     TodoAPI
	timeout time.Duration

	todos []models.Todo
	list  list.Model
	keys  keyMap

	mode     mode
	editID   uint
	title    string
	input    textinput.Model
	formErr  string
	err      string
	status   string
	loading  bool
	quitting bool
}

func New(api TodoAPI, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	keys := newKeyMap()

	l := list.New(nil, itemDelegate{}, 80, 20)
	l.Title = "My Todo List"
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetShowHelp(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		api:     api,
		timeout: timeout,
		list:    l,
		keys:    keys,
		input:   ti,
		loading: true,
	}
}

func (m Model) Todos() []models.Todo {
	return m.todos
}

func (m Model) Err() string {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) call(action string, fn func(ctx context.Context) (tea.Msg, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msg, err := fn(ctx)
		if err != nil {
			return errMsg{action: action, err: err}
		}
		return msg
	}
}

func (m Model) load() tea.Cmd {
	return m.call("load todos", func(ctx context.Context) (tea.Msg, error) {
		todos, err := m.api.GetTodos(ctx)
		return todosLoadedMsg{todos: todos}, err
	})
}

func (m Model) create(input models.CreateTodoInput) tea.Cmd {
	return m.call("create todo", func(ctx context.Context) (tea.Msg, error) {
		todo, err := m.api.CreateTodo(ctx, input)
		if err != nil {
			return nil, err
		}
		return todoCreatedMsg{todo: *todo}, nil
	})
}

func (m Model) update(input models.UpdateTodoInput) tea.Cmd {
	return m.call("update todo", func(ctx context.Context) (tea.Msg, error) {
		todo, err := m.api.UpdateTodo(ctx, input)
		if err != nil {
			return nil, err
		}
		return todoChangedMsg{todo: *todo}, nil
	})
}

func (m Model) toggle(id uint) tea.Cmd {
	return m.call("toggle todo", func(ctx context.Context) (tea.Msg, error) {
		todo, err := m.api.ToggleTodo(ctx, id)
		if err != nil {
			return nil, err
		}
		return todoChangedMsg{todo: *todo}, nil
	})
}

func (m Model) remove(id uint) tea.Cmd {
	return m.call("delete todo", func(ctx context.Context) (tea.Msg, error) {
		removed, err := m.api.DeleteTodo(ctx, id)
		return todoDeletedMsg{id: id, removed: removed}, err
	})
}

func (m Model) selected() (models.Todo, bool) {
	item, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return models.Todo{}, false
	}
	return item.todo, true
}

func (m *Model) setTodos(todos []models.Todo) tea.Cmd {
	m.todos = todos
	return m.list.SetItems(toItems(todos))
}

func (m *Model) replace(todo models.Todo) tea.Cmd {
	todos := make([]models.Todo, len(m.todos))
	copy(todos, m.todos)
	for i := range todos {
		if todos[i].ID == todo.ID {
			todos[i] = todo
			return m.setTodos(todos)
		}
	}
	return m.setTodos(append(todos, todo))
}

func (m *Model) drop(id uint) tea.Cmd {
	todos := make([]models.Todo, 0, len(m.todos))
	for _, todo := range m.todos {
		if todo.ID != id {
			todos = append(todos, todo)
		}
	}
	return m.setTodos(todos)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case todosLoadedMsg:
		m.loading = false
		m.err = ""
		return m, m.setTodos(msg.todos)

	case todoCreatedMsg:
		m.err = ""
		m.status = fmt.Sprintf("added %q", msg.todo.Title)
		cmd := m.setTodos(append(append([]models.Todo{}, m.todos...), msg.todo))
		m.list.Select(len(m.todos) - 1)
		return m, cmd

	case todoChangedMsg:
		m.err = ""
		m.status = fmt.Sprintf("saved %q", msg.todo.Title)
		return m, m.replace(msg.todo)

	case todoDeletedMsg:
		m.err = ""
		m.status = "deleted"
		if !msg.removed {
			m.status = "already deleted"
		}
		return m, m.drop(msg.id)

	case errMsg:
		m.loading = false
		m.err = fmt.Sprintf("failed to %s: %v", msg.action, msg.err)
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateForm(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.add):
		m.editID = 0
		return m.openForm("", "What needs to be done?"), nil

	case key.Matches(msg, m.keys.edit):
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editID = todo.ID
		return m.openForm(todo.Title, "Title"), nil

	case key.Matches(msg, m.keys.toggle):
		if todo, ok := m.selected(); ok {
			return m, m.toggle(todo.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.remove):
		if todo, ok := m.selected(); ok {
			return m, m.remove(todo.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		return m, m.load()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) openForm(value, placeholder string) Model {
	m.mode = modeTitle
	m.formErr = ""
	m.status = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m
}

func (m Model) closeForm() Model {
	m.mode = modeBrowse
	m.title = ""
	m.formErr = ""
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.closeForm(), nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())

		if m.mode == modeTitle {
			if value == "" {
				m.formErr = "Title cannot be empty"
				return m, nil
			}
			m.title = value
			m.mode = modeDescription
			m.formErr = ""
			m.input.SetValue(m.currentDescription())
			m.input.CursorEnd()
			m.input.Placeholder = "Description (optional)"
			return m, nil
		}

		var description *string
		if value != "" {
			description = &value
		}

		title, editID := m.title, m.editID
		m = m.closeForm()

		if editID == 0 {
			return m, m.create(models.CreateTodoInput{Title: title, Description: description})
		}

		input := models.UpdateTodoInput{ID: editID, Title: &title, Description: models.NullString()}
		if description != nil {
			input.Description = models.NewNullableString(*description)
		}
		return m, m.update(input)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) currentDescription() string {
	if m.editID == 0 {
		return ""
	}
	for _, todo := range m.todos {
		if todo.ID == m.editID && todo.Description != nil {
			return *todo.Description
		}
	}
	return ""
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	done := 0
	for _, todo := range m.todos {
		if todo.Completed {
			done++
		}
	}

	header := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		mutedStyle.Render(Summary(done, len(m.todos))),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(m.todos)-done,
		accentStyle.Render("Total"), len(m.todos),
	)

	sections := []string{header}
	if m.loading {
		sections = append(sections, mutedStyle.Render("loading..."))
	}
	sections = append(sections, m.list.View())

	if m.mode != modeBrowse {
		label := "Add new task"
		if m.editID != 0 {
			label = "Edit task"
		}
		if m.mode == modeDescription {
			label += ": description"
		}
		if m.formErr != "" {
			label += "  " + errorStyle.Render(m.formErr)
		}
		sections = append(sections, panelStyle.Render(label+"\n"+m.input.View()))
	}

	if m.err != "" {
		sections = append(sections, errorStyle.Render(m.err))
	} else if m.status != "" {
		sections = append(sections, successStyle.Render(m.status))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// Run starts the interactive client in the alternate screen.
func Run(api TodoAPI, timeout time.Duration) error {
	_, err := tea.NewProgram(New(api, timeout), tea.WithAltScreen()).Run()
	return err
}
