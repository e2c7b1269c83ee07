package update

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tasklist/internal/commands"
	"github.com/sandeepkv93/tasklist/internal/model"
)

func (m *Model) openPalette() tea.Cmd {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.Status = StatusBar{Text: "command palette active", IsError: false}
	return m.commandInput.Focus()
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case tea.KeyEnter:
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
		return m, m.rows.drain()
	case tea.KeyCtrlC:
		m.Quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	ctx := context.Background()
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if err := m.binding.Submit(ctx, a.Title); err != nil {
				if errors.Is(err, model.ErrEmptyTitle) {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: emptyTitleMessage}
				}
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("task added: %s", strings.TrimSpace(a.Title))}, nil
		},
		Done: func(d commands.DoneArgs) (commands.Result, error) {
			t, ok := m.store.At(d.Position - 1)
			if !ok {
				return commands.Result{}, &commands.CommandError{
					Code:    commands.ErrCodeInvalidArgument,
					Message: fmt.Sprintf("no task at row %d", d.Position),
				}
			}
			if err := m.binding.Toggle(ctx, d.Position-1, true); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "completed: " + t.Title}, nil
		},
	})
	if err != nil {
		m.setError(err)
		return m
	}
	m.Status = StatusBar{Text: res.Message, IsError: false}
	return m
}
