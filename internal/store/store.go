// Package store owns the session's ordered task collection and is the only writer of
// its persisted form. Every mutation rewrites the whole encoded collection under one
// key before listeners are told about it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/sandeepkv93/tasklist/internal/codec"
	"github.com/sandeepkv93/tasklist/internal/model"
	"github.com/sandeepkv93/tasklist/internal/storage"
)

const DefaultKey = "taskList"

type CorruptPolicy string

const (
	CorruptReset CorruptPolicy = "reset"
	CorruptFail  CorruptPolicy = "fail"
)

func (p CorruptPolicy) IsValid() bool {
	switch p {
	case CorruptReset, CorruptFail:
		return true
	default:
		return false
	}
}

// Listener receives position changes after they have been persisted.
type Listener interface {
	OnInserted(index int)
	OnRemoved(index int)
}

type options struct {
	key    string
	policy CorruptPolicy
}

type Option func(*options)

func WithKey(key string) Option {
	return func(o *options) {
		if k := strings.TrimSpace(key); k != "" {
			o.key = k
		}
	}
}

func WithCorruptPolicy(p CorruptPolicy) Option {
	return func(o *options) {
		if p.IsValid() {
			o.policy = p
		}
	}
}

type subscription struct {
	id       int
	listener Listener
}

type Store struct {
	kv        storage.KV
	key       string
	tasks     []model.Task
	subs      []subscription
	nextSubID int
	recovered *CorruptStateError
}

// Open loads the collection stored under the configured key. A missing or empty value
// is an empty list. An undecodable value is reset to empty unless CorruptFail is set.
func Open(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, errors.New("store: nil kv")
	}
	o := options{key: DefaultKey, policy: CorruptReset}
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := kv.Get(ctx, o.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("store: read %q: %w", o.key, err)
		}
		raw = ""
	}

	s := &Store{kv: kv, key: o.key}
	tasks, err := codec.DecodeCollection(raw)
	if err != nil {
		corrupt := &CorruptStateError{Key: o.key, Err: err}
		if o.policy == CorruptFail {
			return nil, corrupt
		}
		log.Printf("warning: %v; starting with an empty task list", corrupt)
		s.recovered = corrupt
		tasks = []model.Task{}
	}
	s.tasks = tasks
	return s, nil
}

func (s *Store) Key() string {
	return s.key
}

// Recovered returns the corruption that Open reset, or nil.
func (s *Store) Recovered() error {
	if s.recovered == nil {
		return nil
	}
	return s.recovered
}

func (s *Store) Len() int {
	return len(s.tasks)
}

func (s *Store) At(index int) (model.Task, bool) {
	if index < 0 || index >= len(s.tasks) {
		return model.Task{}, false
	}
	return s.tasks[index], true
}

// Snapshot returns a copy of the current collection in display order.
func (s *Store) Snapshot() []model.Task {
	return slices.Clone(s.tasks)
}

func (s *Store) Append(ctx context.Context, t model.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.tasks = append(s.tasks, t)
	if err := s.persist(ctx, "append"); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return err
	}
	s.emit(func(l Listener) { l.OnInserted(len(s.tasks) - 1) })
	return nil
}

func (s *Store) RemoveAt(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.tasks) {
		return &IndexError{Index: index, Len: len(s.tasks)}
	}
	removed := s.tasks[index]
	s.tasks = slices.Delete(s.tasks, index, index+1)
	if err := s.persist(ctx, "remove"); err != nil {
		s.tasks = slices.Insert(s.tasks, index, removed)
		return err
	}
	s.emit(func(l Listener) { l.OnRemoved(index) })
	return nil
}

// Subscribe registers l for insert and remove events until the returned func is called.
func (s *Store) Subscribe(l Listener) func() {
	id := s.nextSubID
	s.nextSubID++
	s.subs = append(s.subs, subscription{id: id, listener: l})
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
	}
}

func (s *Store) persist(ctx context.Context, op string) error {
	if err := s.kv.Set(ctx, s.key, codec.EncodeCollection(s.tasks)); err != nil {
		return &PersistError{Op: op, Key: s.key, Err: err}
	}
	return nil
}

func (s *Store) emit(fn func(Listener)) {
	for _, sub := range slices.Clone(s.subs) {
		fn(sub.listener)
	}
}
