package update

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/tasklist/internal/binding"
	"github.com/sandeepkv93/tasklist/internal/store"
)

const recoveredMessage = "saved task list was unreadable; started empty"

const (
	defaultListWidth  = 60
	defaultListHeight = 14
	// header, panel borders, status line and footer
	chromeHeight = 6
)

type StatusBar struct {
	Text    string
	IsError bool
}

type PromptState struct {
	Active bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type KeyMap struct {
	Add      key.Binding
	Complete key.Binding
	Up       key.Binding
	Down     key.Binding
	Palette  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add:      key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add task")),
		Complete: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "complete")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Palette:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Complete, k.Palette, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Complete},
		{k.Add, k.Palette},
		{k.Help, k.Quit},
	}
}

type Model struct {
	store       *store.Store
	binding     *binding.Binding
	rows        *listDisplay
	Prompt      PromptState
	Palette     CommandPaletteState
	Status      StatusBar
	HelpVisible bool
	Keys        KeyMap
	Quitting    bool
	LastError   error

	titleInput   textinput.Model
	commandInput textinput.Model
	helpModel    help.Model
}

type AddTaskMsg struct {
	Title string
}

type ToggleTaskMsg struct {
	Index     int
	Completed bool
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// NewModel binds a list display to s. The display is populated from s immediately.
func NewModel(s *store.Store) Model {
	rows := newListDisplay(defaultListWidth, defaultListHeight)
	m := Model{
		store: s,
		rows:  rows,
		Keys:  DefaultKeyMap(),
	}
	m.binding = binding.New(s, rows)
	m.initBubbleComponents()
	if s.Recovered() != nil {
		m.Status = StatusBar{Text: recoveredMessage, IsError: true}
	}
	return m
}

func (m *Model) initBubbleComponents() {
	m.titleInput = textinput.New()
	m.titleInput.Placeholder = "Task name"
	m.titleInput.Prompt = "> "
	m.titleInput.CharLimit = 256
	m.titleInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
}

// Close detaches the model from its store.
func (m Model) Close() {
	m.binding.Close()
}

func (m Model) RowTitles() []string {
	return m.rows.Titles()
}
