package update

import (
	"errors"
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tasklist/internal/store"
	"github.com/sandeepkv93/tasklist/internal/views"
)

func (m Model) Init() tea.Cmd {
	return m.rows.drain()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		width := typed.Width - 4
		height := typed.Height - chromeHeight
		if width > 0 && height > 0 {
			m.rows.list.SetSize(width, height)
		}
		m.helpModel.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		if m.Prompt.Active {
			return m.handlePromptKey(typed)
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}

		switch {
		case key.Matches(typed, m.Keys.Quit):
			m.Quitting = true
			return m, tea.Quit
		case key.Matches(typed, m.Keys.Add):
			cmd := m.openPrompt()
			return m, cmd
		case key.Matches(typed, m.Keys.Up):
			m.rows.list.CursorUp()
			return m, nil
		case key.Matches(typed, m.Keys.Down):
			m.rows.list.CursorDown()
			return m, nil
		case key.Matches(typed, m.Keys.Complete):
			m.completeSelected()
			return m, m.rows.drain()
		case key.Matches(typed, m.Keys.Palette):
			cmd := m.openPalette()
			return m, cmd
		case key.Matches(typed, m.Keys.Help):
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.rows.list, cmd = m.rows.list.Update(typed)
		return m, cmd
	case AddTaskMsg:
		m.submitTitle(typed.Title)
		return m, m.rows.drain()
	case ToggleTaskMsg:
		m.toggle(typed.Index, typed.Completed)
		return m, m.rows.drain()
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.setError(typed.Err)
		return m, nil
	}

	var cmd tea.Cmd
	m.rows.list, cmd = m.rows.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	listView := m.rows.list.View()
	if m.rows.Len() == 0 {
		listView = views.RenderEmptyList()
	}

	overlay := ""
	switch {
	case m.Prompt.Active:
		overlay = m.renderPrompt()
	case m.Palette.Active:
		overlay = views.RenderCommandPalette(true, m.commandInput.View())
	case m.HelpVisible:
		overlay = m.renderHelpView()
	}

	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("tasklist | open: %d", m.store.Len()),
		ListView:   listView,
		Overlay:    overlay,
		StatusLine: status,
		Footer:     m.helpModel.View(m.Keys),
	})
}

func (m *Model) setError(err error) {
	m.LastError = err
	if err == nil {
		return
	}
	var perr *store.PersistError
	if errors.As(err, &perr) {
		log.Printf("error: %v", perr)
	}
	m.Status = StatusBar{Text: err.Error(), IsError: true}
}
