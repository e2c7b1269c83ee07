// Package codec converts tasks and task collections to and from their JSON form.
//
// A task is encoded as {"title":"...","isCompleted":false}; a collection is one
// object {"tasks":[...]} so the whole list is stored as a single value.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sandeepkv93/tasklist/internal/model"
)

type DecodeError struct {
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type taskRecord struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

type collectionRecord struct {
	Tasks []taskRecord `json:"tasks"`
}

// Pointer fields let the decoder tell a missing field from a zero value.
type taskWire struct {
	Title       *string `json:"title"`
	IsCompleted *bool   `json:"isCompleted"`
}

type collectionWire struct {
	Tasks *[]taskWire `json:"tasks"`
}

func EncodeTask(t model.Task) string {
	return mustMarshal(taskRecord{Title: t.Title, IsCompleted: t.IsCompleted})
}

func DecodeTask(text string) (model.Task, error) {
	var wire taskWire
	if err := decodeStrict(text, &wire); err != nil {
		return model.Task{}, &DecodeError{Kind: "task", Err: err}
	}
	task, err := wire.task()
	if err != nil {
		return model.Task{}, &DecodeError{Kind: "task", Err: err}
	}
	return task, nil
}

func EncodeCollection(tasks []model.Task) string {
	rec := collectionRecord{Tasks: make([]taskRecord, 0, len(tasks))}
	for _, t := range tasks {
		rec.Tasks = append(rec.Tasks, taskRecord{Title: t.Title, IsCompleted: t.IsCompleted})
	}
	return mustMarshal(rec)
}

// DecodeCollection treats empty input as the never-persisted state and returns an
// empty collection for it.
func DecodeCollection(text string) ([]model.Task, error) {
	if strings.TrimSpace(text) == "" {
		return []model.Task{}, nil
	}
	var wire collectionWire
	if err := decodeStrict(text, &wire); err != nil {
		return nil, &DecodeError{Kind: "collection", Err: err}
	}
	if wire.Tasks == nil {
		return nil, &DecodeError{Kind: "collection", Err: errors.New(`missing field "tasks"`)}
	}
	out := make([]model.Task, 0, len(*wire.Tasks))
	for i, w := range *wire.Tasks {
		task, err := w.task()
		if err != nil {
			return nil, &DecodeError{Kind: "collection", Err: fmt.Errorf("tasks[%d]: %w", i, err)}
		}
		out = append(out, task)
	}
	return out, nil
}

func (w taskWire) task() (model.Task, error) {
	if w.Title == nil {
		return model.Task{}, errors.New(`missing field "title"`)
	}
	if w.IsCompleted == nil {
		return model.Task{}, errors.New(`missing field "isCompleted"`)
	}
	t := model.Task{Title: *w.Title, IsCompleted: *w.IsCompleted}
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func decodeStrict(text string, v any) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("empty input")
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after value")
	}
	return nil
}

// Records hold only strings and bools, which always marshal.
func mustMarshal(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("codec: marshal %T: %v", v, err))
	}
	return string(out)
}
