package update

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tasklist/internal/binding"
)

type taskItem struct {
	row binding.Row
}

func (i taskItem) Title() string {
	box := "[ ]"
	if i.row.Completed {
		box = "[x]"
	}
	return box + " " + i.row.Title
}

func (i taskItem) Description() string { return "" }
func (i taskItem) FilterValue() string { return i.row.Title }

// listDisplay is the binding.Display backed by a bubbles list. Rows change only
// through InsertItem and RemoveItem; commands the list returns are held until the
// update loop drains them.
type listDisplay struct {
	list    list.Model
	pending []tea.Cmd
}

func newListDisplay(width, height int) *listDisplay {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New([]list.Item{}, delegate, width, height)
	l.Title = "Tasks"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)
	return &listDisplay{list: l}
}

func (d *listDisplay) InsertRow(index int, row binding.Row) {
	if cmd := d.list.InsertItem(index, taskItem{row: row}); cmd != nil {
		d.pending = append(d.pending, cmd)
	}
}

func (d *listDisplay) RemoveRow(index int) {
	d.list.RemoveItem(index)
	if n := len(d.list.Items()); n > 0 && d.list.Index() >= n {
		d.list.Select(n - 1)
	}
}

func (d *listDisplay) ScrollTo(index int) {
	d.list.Select(index)
}

func (d *listDisplay) Len() int {
	return len(d.list.Items())
}

// Selected returns the cursor position, or false when the list is empty.
func (d *listDisplay) Selected() (int, bool) {
	if d.Len() == 0 {
		return 0, false
	}
	return d.list.Index(), true
}

func (d *listDisplay) Titles() []string {
	items := d.list.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(taskItem); ok {
			out = append(out, ti.row.Title)
		}
	}
	return out
}

func (d *listDisplay) drain() tea.Cmd {
	if len(d.pending) == 0 {
		return nil
	}
	cmds := d.pending
	d.pending = nil
	return tea.Batch(cmds...)
}
