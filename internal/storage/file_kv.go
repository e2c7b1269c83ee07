package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type fileState struct {
	Entries map[string]string `json:"entries"`
}

// FileKV keeps every entry in one JSON document that is rewritten on each change.
type FileKV struct {
	path string
}

func NewFileKV(path string) (*FileKV, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("storage: empty state file path")
	}
	return &FileKV{path: trimmed}, nil
}

func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	state, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := state.Entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	state, err := f.load()
	if err != nil {
		return err
	}
	state.Entries[key] = value
	return f.save(state)
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	state, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := state.Entries[key]; !ok {
		return ErrNotFound
	}
	delete(state.Entries, key)
	return f.save(state)
}

func (f *FileKV) load() (fileState, error) {
	state := fileState{Entries: make(map[string]string)}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return fileState{}, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return state, nil
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return fileState{}, fmt.Errorf("parse state file %s: %w", f.path, err)
	}
	if state.Entries == nil {
		state.Entries = make(map[string]string)
	}
	return state, nil
}

func (f *FileKV) save(state fileState) error {
	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
