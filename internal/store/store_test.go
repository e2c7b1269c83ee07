package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/sandeepkv93/tasklist/internal/codec"
	"github.com/sandeepkv93/tasklist/internal/model"
	"github.com/sandeepkv93/tasklist/internal/storage"
)

type event struct {
	kind  string
	index int
}

type recordingListener struct {
	events []event
}

func (r *recordingListener) OnInserted(index int) {
	r.events = append(r.events, event{kind: "inserted", index: index})
}

func (r *recordingListener) OnRemoved(index int) {
	r.events = append(r.events, event{kind: "removed", index: index})
}

type countingKV struct {
	*storage.MemoryKV
	sets    int
	failSet error
}

func newCountingKV() *countingKV {
	return &countingKV{MemoryKV: storage.NewMemoryKV()}
}

func (c *countingKV) Set(ctx context.Context, key, value string) error {
	c.sets++
	if c.failSet != nil {
		return c.failSet
	}
	return c.MemoryKV.Set(ctx, key, value)
}

func persisted(t *testing.T, kv storage.KV, key string) []model.Task {
	t.Helper()
	raw, err := kv.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("read persisted blob: %v", err)
	}
	tasks, err := codec.DecodeCollection(raw)
	if err != nil {
		t.Fatalf("decode persisted blob: %v", err)
	}
	return tasks
}

func seed(t *testing.T, kv storage.KV, tasks ...model.Task) {
	t.Helper()
	if err := kv.Set(context.Background(), DefaultKey, codec.EncodeCollection(tasks)); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestOpenEmptyStore(t *testing.T) {
	s, err := Open(context.Background(), storage.NewMemoryKV())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 0 || len(s.Snapshot()) != 0 {
		t.Fatalf("expected empty store, got %+v", s.Snapshot())
	}
	if s.Key() != DefaultKey {
		t.Fatalf("unexpected key %q", s.Key())
	}
	if s.Recovered() != nil {
		t.Fatalf("expected no recovery, got %v", s.Recovered())
	}
}

func TestOpenEmptyBlobIsEmptyStore(t *testing.T) {
	kv := storage.NewMemoryKV()
	if err := kv.Set(context.Background(), DefaultKey, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d tasks", s.Len())
	}
}

func TestOpenRestoresPersistedCollection(t *testing.T) {
	kv := storage.NewMemoryKV()
	seed(t, kv, model.Task{Title: "X"})

	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := []model.Task{{Title: "X"}}
	if !model.EqualTasks(s.Snapshot(), want) {
		t.Fatalf("snapshot = %+v, want %+v", s.Snapshot(), want)
	}
}

func TestOpenCorruptStateResetsByDefault(t *testing.T) {
	kv := newCountingKV()
	if err := kv.MemoryKV.Set(context.Background(), DefaultKey, "{garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("expected reset policy to swallow corruption, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store after reset, got %d", s.Len())
	}
	var corrupt *CorruptStateError
	if !errors.As(s.Recovered(), &corrupt) {
		t.Fatalf("expected recovered corrupt state error, got %v", s.Recovered())
	}
	var decodeErr *codec.DecodeError
	if !errors.As(corrupt, &decodeErr) {
		t.Fatalf("expected wrapped decode error, got %v", corrupt.Err)
	}
	if kv.sets != 0 {
		t.Fatalf("expected no write during open, got %d", kv.sets)
	}

	if err := s.Append(context.Background(), model.Task{Title: "fresh"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := persisted(t, kv, DefaultKey); !model.EqualTasks(got, []model.Task{{Title: "fresh"}}) {
		t.Fatalf("expected corrupt blob to be replaced, got %+v", got)
	}
}

func TestOpenCorruptStateFailPolicy(t *testing.T) {
	kv := storage.NewMemoryKV()
	if err := kv.Set(context.Background(), DefaultKey, `{"tasks":[{"title":"A"}]}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := Open(context.Background(), kv, WithCorruptPolicy(CorruptFail))
	var corrupt *CorruptStateError
	if !errors.As(err, &corrupt) || corrupt.Key != DefaultKey {
		t.Fatalf("expected CorruptStateError, got %v", err)
	}
}

func TestOpenPropagatesReadFailure(t *testing.T) {
	_, err := Open(context.Background(), brokenKV{})
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected read failure, got %v", err)
	}
}

func TestOpenCustomKey(t *testing.T) {
	kv := storage.NewMemoryKV()
	seed(t, kv, model.Task{Title: "default"})
	s, err := Open(context.Background(), kv, WithKey("work"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 0 || s.Key() != "work" {
		t.Fatalf("expected empty store under key work, got %d under %q", s.Len(), s.Key())
	}
	if err := s.Append(context.Background(), model.Task{Title: "w"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := persisted(t, kv, DefaultKey); !model.EqualTasks(got, []model.Task{{Title: "default"}}) {
		t.Fatalf("default key should be untouched, got %+v", got)
	}
}

func TestAppendOnEmptyStore(t *testing.T) {
	kv := newCountingKV()
	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := &recordingListener{}
	s.Subscribe(rec)

	if err := s.Append(context.Background(), model.Task{Title: "Buy milk"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	want := []model.Task{{Title: "Buy milk"}}
	if !model.EqualTasks(s.Snapshot(), want) {
		t.Fatalf("snapshot = %+v, want %+v", s.Snapshot(), want)
	}
	if len(rec.events) != 1 || rec.events[0] != (event{kind: "inserted", index: 0}) {
		t.Fatalf("unexpected events: %+v", rec.events)
	}
	if kv.sets != 1 {
		t.Fatalf("expected exactly one write, got %d", kv.sets)
	}
}

func TestAppendInvariant(t *testing.T) {
	kv := storage.NewMemoryKV()
	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 5; i++ {
		task := model.Task{Title: fmt.Sprintf("task %d", i), IsCompleted: i%2 == 1}
		if err := s.Append(context.Background(), task); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		snap := s.Snapshot()
		if last := snap[len(snap)-1]; !last.Equal(task) {
			t.Fatalf("last element = %+v, want %+v", last, task)
		}
		if got := persisted(t, kv, DefaultKey); !model.EqualTasks(got, snap) {
			t.Fatalf("persisted %+v != snapshot %+v", got, snap)
		}
	}
}

func TestAppendRejectsEmptyTitle(t *testing.T) {
	kv := newCountingKV()
	s, _ := Open(context.Background(), kv)
	rec := &recordingListener{}
	s.Subscribe(rec)

	err := s.Append(context.Background(), model.Task{Title: ""})
	if !errors.Is(err, model.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if s.Len() != 0 || len(rec.events) != 0 || kv.sets != 0 {
		t.Fatalf("expected no mutation, len=%d events=%d sets=%d", s.Len(), len(rec.events), kv.sets)
	}
}

func TestAppendRejectsInvalidUTF8Title(t *testing.T) {
	kv := newCountingKV()
	s, _ := Open(context.Background(), kv)
	rec := &recordingListener{}
	s.Subscribe(rec)

	err := s.Append(context.Background(), model.Task{Title: "caf\xe9"})
	if !errors.Is(err, model.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if s.Len() != 0 || len(rec.events) != 0 || kv.sets != 0 {
		t.Fatalf("expected no mutation, len=%d events=%d sets=%d", s.Len(), len(rec.events), kv.sets)
	}

	if err := s.Append(context.Background(), model.Task{Title: "café"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := persisted(t, kv, DefaultKey); !model.EqualTasks(got, s.Snapshot()) {
		t.Fatalf("persisted %+v differs from memory %+v", got, s.Snapshot())
	}
}

func TestWhitespaceTitleDoesNotResetNeighbours(t *testing.T) {
	kv := newCountingKV()
	seed(t, kv, model.Task{Title: "Pay rent"}, model.Task{Title: " "}, model.Task{Title: "Call mom"})

	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Recovered() != nil {
		t.Fatalf("expected clean load, got %v", s.Recovered())
	}
	if err := s.Append(context.Background(), model.Task{Title: "new"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	want := []model.Task{{Title: "Pay rent"}, {Title: " "}, {Title: "Call mom"}, {Title: "new"}}
	if got := persisted(t, kv, DefaultKey); !model.EqualTasks(got, want) {
		t.Fatalf("unexpected persisted tasks: %+v", got)
	}
}

func TestRemoveAtMiddle(t *testing.T) {
	kv := newCountingKV()
	seed(t, kv.MemoryKV, model.Task{Title: "A"}, model.Task{Title: "B"}, model.Task{Title: "C"})
	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := &recordingListener{}
	s.Subscribe(rec)

	if err := s.RemoveAt(context.Background(), 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := []model.Task{{Title: "A"}, {Title: "C"}}
	if !model.EqualTasks(s.Snapshot(), want) {
		t.Fatalf("snapshot = %+v, want %+v", s.Snapshot(), want)
	}
	if len(rec.events) != 1 || rec.events[0] != (event{kind: "removed", index: 1}) {
		t.Fatalf("unexpected events: %+v", rec.events)
	}
	if got := persisted(t, kv, DefaultKey); !model.EqualTasks(got, want) {
		t.Fatalf("persisted = %+v, want %+v", got, want)
	}
	if kv.sets != 1 {
		t.Fatalf("expected exactly one write, got %d", kv.sets)
	}
}

func TestRemoveInvariantEveryPosition(t *testing.T) {
	base := []model.Task{{Title: "A"}, {Title: "B", IsCompleted: true}, {Title: "C"}, {Title: "D"}}
	for i := range base {
		kv := storage.NewMemoryKV()
		seed(t, kv, base...)
		s, err := Open(context.Background(), kv)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := s.RemoveAt(context.Background(), i); err != nil {
			t.Fatalf("remove %d: %v", i, err)
		}
		want := append(append([]model.Task{}, base[:i]...), base[i+1:]...)
		if !model.EqualTasks(s.Snapshot(), want) {
			t.Fatalf("remove %d: snapshot = %+v, want %+v", i, s.Snapshot(), want)
		}
		if got := persisted(t, kv, DefaultKey); !model.EqualTasks(got, want) {
			t.Fatalf("remove %d: persisted = %+v, want %+v", i, got, want)
		}
	}
}

func TestRemoveAtOutOfRange(t *testing.T) {
	kv := newCountingKV()
	seed(t, kv.MemoryKV, model.Task{Title: "A"})
	s, _ := Open(context.Background(), kv)
	for _, idx := range []int{-1, 1, 5} {
		err := s.RemoveAt(context.Background(), idx)
		var ie *IndexError
		if !errors.As(err, &ie) || ie.Index != idx || ie.Len != 1 {
			t.Fatalf("RemoveAt(%d) error = %v, want IndexError", idx, err)
		}
	}
	if s.Len() != 1 || kv.sets != 0 {
		t.Fatalf("expected untouched store, len=%d sets=%d", s.Len(), kv.sets)
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	kv := newCountingKV()
	seed(t, kv.MemoryKV, model.Task{Title: "A"}, model.Task{Title: "B"})
	s, err := Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := &recordingListener{}
	s.Subscribe(rec)
	diskFull := errors.New("disk full")
	kv.failSet = diskFull

	err = s.Append(context.Background(), model.Task{Title: "C"})
	var perr *PersistError
	if !errors.As(err, &perr) || perr.Op != "append" || !errors.Is(err, diskFull) {
		t.Fatalf("expected append PersistError, got %v", err)
	}
	err = s.RemoveAt(context.Background(), 0)
	if !errors.As(err, &perr) || perr.Op != "remove" {
		t.Fatalf("expected remove PersistError, got %v", err)
	}

	want := []model.Task{{Title: "A"}, {Title: "B"}}
	if !model.EqualTasks(s.Snapshot(), want) {
		t.Fatalf("expected rollback to %+v, got %+v", want, s.Snapshot())
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no events on failed writes, got %+v", rec.events)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	kv := storage.NewMemoryKV()
	seed(t, kv, model.Task{Title: "A"})
	s, _ := Open(context.Background(), kv)
	snap := s.Snapshot()
	snap[0].Title = "mutated"
	if got, _ := s.At(0); got.Title != "A" {
		t.Fatalf("snapshot mutation leaked into store: %+v", got)
	}
	if _, ok := s.At(1); ok {
		t.Fatal("expected At out of range to report false")
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	s, _ := Open(context.Background(), storage.NewMemoryKV())
	first := &recordingListener{}
	second := &recordingListener{}
	unsubscribe := s.Subscribe(first)
	s.Subscribe(second)

	_ = s.Append(context.Background(), model.Task{Title: "A"})
	unsubscribe()
	_ = s.Append(context.Background(), model.Task{Title: "B"})

	if len(first.events) != 1 {
		t.Fatalf("expected one event before unsubscribe, got %+v", first.events)
	}
	if len(second.events) != 2 || second.events[1] != (event{kind: "inserted", index: 1}) {
		t.Fatalf("unexpected events for remaining listener: %+v", second.events)
	}
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, error) { return "", errors.New("io failure") }
func (brokenKV) Set(context.Context, string, string) error   { return errors.New("io failure") }
func (brokenKV) Delete(context.Context, string) error        { return errors.New("io failure") }

func TestPersistFailureIsReturnedNotLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	kv := newCountingKV()
	s, _ := Open(context.Background(), kv)
	kv.failSet = errors.New("disk full")
	var perr *PersistError
	if err := s.Append(context.Background(), model.Task{Title: "A"}); !errors.As(err, &perr) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected the store to leave logging to its caller, got %q", buf.String())
	}
}
