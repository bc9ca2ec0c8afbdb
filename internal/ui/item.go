package ui

import (
	"fmt"
	"io"

	"todo-tracker/backend/internal/models"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type todoItem struct {
	todo models.Todo
}

func (i todoItem) Title() string { return i.todo.Title }

func (i todoItem) Description() string {
	if i.todo.Description == nil {
		return ""
	}
	return *i.todo.Description
}

func (i todoItem) FilterValue() string { return i.todo.Title }

// RenderLine formats a todo as one line: checkbox, title and description.
func RenderLine(todo models.Todo) string {
	box := mutedStyle.Render(boxUnchecked)
	text := todo.Title
	if todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	line := fmt.Sprintf("%s %s", box, text)
	if todo.Description != nil && *todo.Description != "" {
		line += "  " + mutedStyle.Render(*todo.Description)
	}
	return line
}

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+RenderLine(it.todo))
}

func toItems(todos []models.Todo) []list.Item {
	items := make([]list.Item, 0, len(todos))
	for _, todo := range todos {
		items = append(items, todoItem{todo: todo})
	}
	return items
}
