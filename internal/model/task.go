package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyTitle   = errors.New("model: task name cannot be empty")
	ErrInvalidTitle = errors.New("model: task name is not valid UTF-8")
)

// Task is a single checklist entry. Title is fixed at creation.
type Task struct {
	Title       string
	IsCompleted bool
}

// NewTask builds a task from user input. Surrounding whitespace is dropped, so a
// blank entry is rejected as empty.
func NewTask(title string) (Task, error) {
	t := Task{Title: strings.TrimSpace(title)}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate accepts any non-empty UTF-8 title. Stored titles are taken as they are;
// only NewTask trims.
func (t Task) Validate() error {
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if !utf8.ValidString(t.Title) {
		return ErrInvalidTitle
	}
	return nil
}

func (t Task) Equal(other Task) bool {
	return t.Title == other.Title && t.IsCompleted == other.IsCompleted
}

// EqualTasks reports whether two collections hold the same tasks in the same order.
func EqualTasks(a, b []Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
