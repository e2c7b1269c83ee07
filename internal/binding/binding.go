// Package binding keeps an incrementally updated list display in step with a
// store.Store. Store events become single-row inserts and removals; rows are never
// reloaded wholesale after the initial population.
package binding

import (
	"context"

	"github.com/sandeepkv93/tasklist/internal/model"
	"github.com/sandeepkv93/tasklist/internal/store"
)

type Row struct {
	Title     string
	Completed bool
}

// Display is an ordered list widget owned by the UI layer.
type Display interface {
	InsertRow(index int, row Row)
	RemoveRow(index int)
	ScrollTo(index int)
}

type Binding struct {
	store       *store.Store
	display     Display
	unsubscribe func()
}

// New fills display with the store's current tasks and follows later changes.
func New(s *store.Store, d Display) *Binding {
	b := &Binding{store: s, display: d}
	for i, t := range s.Snapshot() {
		d.InsertRow(i, rowFor(t))
	}
	b.unsubscribe = s.Subscribe(b)
	return b
}

func (b *Binding) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *Binding) OnInserted(index int) {
	t, ok := b.store.At(index)
	if !ok {
		return
	}
	b.display.InsertRow(index, rowFor(t))
}

func (b *Binding) OnRemoved(index int) {
	b.display.RemoveRow(index)
}

// Submit is the confirm action of the add-task prompt. A blank title returns
// model.ErrEmptyTitle and leaves both store and display untouched.
func (b *Binding) Submit(ctx context.Context, title string) error {
	task, err := model.NewTask(title)
	if err != nil {
		return err
	}
	if err := b.store.Append(ctx, task); err != nil {
		return err
	}
	b.display.ScrollTo(b.store.Len() - 1)
	return nil
}

// Toggle handles a row's completion control. Completing a task removes it from the
// list; clearing the control has no effect on the store.
func (b *Binding) Toggle(ctx context.Context, index int, completed bool) error {
	if !completed {
		return nil
	}
	return b.store.RemoveAt(ctx, index)
}

func rowFor(t model.Task) Row {
	return Row{Title: t.Title, Completed: t.IsCompleted}
}
