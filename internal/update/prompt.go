package update

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tasklist/internal/model"
	"github.com/sandeepkv93/tasklist/internal/views"
)

const emptyTitleMessage = "Task name cannot be empty"

func (m *Model) openPrompt() tea.Cmd {
	m.Prompt.Active = true
	m.titleInput.SetValue("")
	return m.titleInput.Focus()
}

func (m *Model) closePrompt() {
	m.Prompt.Active = false
	m.titleInput.SetValue("")
	m.titleInput.Blur()
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		m.Status = StatusBar{Text: "add cancelled", IsError: false}
		return m, nil
	case tea.KeyEnter:
		title := m.titleInput.Value()
		m.closePrompt()
		m.submitTitle(title)
		return m, m.rows.drain()
	case tea.KeyCtrlC:
		m.Quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m *Model) submitTitle(title string) {
	err := m.binding.Submit(context.Background(), title)
	switch {
	case errors.Is(err, model.ErrEmptyTitle):
		m.Status = StatusBar{Text: emptyTitleMessage, IsError: true}
	case err != nil:
		m.setError(err)
	default:
		m.Status = StatusBar{Text: "task added", IsError: false}
	}
}

// completeSelected checks the row under the cursor, which removes it.
func (m *Model) completeSelected() {
	idx, ok := m.rows.Selected()
	if !ok {
		m.Status = StatusBar{Text: "no task selected", IsError: false}
		return
	}
	m.toggle(idx, true)
}

func (m *Model) toggle(index int, completed bool) {
	title := ""
	if t, ok := m.store.At(index); ok {
		title = t.Title
	}
	if err := m.binding.Toggle(context.Background(), index, completed); err != nil {
		m.setError(err)
		return
	}
	if completed {
		m.Status = StatusBar{Text: "completed: " + title, IsError: false}
	}
}

func (m Model) renderPrompt() string {
	return views.RenderPrompt(views.PromptData{
		Title:     "New Task",
		InputView: m.titleInput.View(),
		Confirm:   "Add",
		Cancel:    "Cancel",
	})
}
