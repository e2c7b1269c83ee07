package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tasklist/internal/config"
	"github.com/sandeepkv93/tasklist/internal/model"
	"github.com/sandeepkv93/tasklist/internal/storage"
	"github.com/sandeepkv93/tasklist/internal/store"
	"github.com/sandeepkv93/tasklist/internal/update"
)

type rootFlags struct {
	configPath string
	backend    string
	dbPath     string
	stateFile  string
	key        string
	logFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "tasklist",
		Short:         "A persistent terminal checklist",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", filepath.Join(config.DefaultDataDir(), "config.yaml"), "YAML config file")
	pf.StringVar(&flags.backend, "backend", "", "storage backend (sqlite, file, memory)")
	pf.StringVar(&flags.dbPath, "db", "", "sqlite database path")
	pf.StringVar(&flags.stateFile, "state-file", "", "JSON state file path for the file backend")
	pf.StringVar(&flags.key, "key", "", "storage key holding the task list")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file")

	root.AddCommand(listCmd(flags), addCmd(flags), doneCmd(flags), resetCmd(flags))
	return root
}

// loadConfig layers defaults, the YAML file, TASKLIST_* variables and explicit flags.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (config.RuntimeConfig, error) {
	cfg, err := config.LoadFile(flags.configPath, config.DefaultRuntimeConfig())
	if err != nil {
		return config.RuntimeConfig{}, err
	}
	cfg = config.RuntimeConfigFromEnv(cfg)

	fs := cmd.Flags()
	if fs.Changed("backend") {
		cfg.Backend = strings.ToLower(strings.TrimSpace(flags.backend))
	}
	if fs.Changed("db") {
		cfg.DatabasePath = flags.dbPath
	}
	if fs.Changed("state-file") {
		cfg.StateFilePath = flags.stateFile
	}
	if fs.Changed("key") {
		cfg.StorageKey = flags.key
	}
	if fs.Changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if err := cfg.Validate(); err != nil {
		return config.RuntimeConfig{}, err
	}
	return cfg, nil
}

// openKV returns the configured persistence facility and a func releasing it.
func openKV(cfg config.RuntimeConfig) (storage.KV, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendSQLite:
		kv, err := storage.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil
	case config.BackendFile:
		kv, err := storage.NewFileKV(cfg.StateFilePath)
		if err != nil {
			return nil, nil, err
		}
		return kv, noop, nil
	case config.BackendMemory:
		return storage.NewMemoryKV(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func withStore(ctx context.Context, cfg config.RuntimeConfig, fn func(storage.KV, *store.Store) error) error {
	kv, closeKV, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeKV(); cerr != nil {
			log.Printf("warning: close storage: %v", cerr)
		}
	}()
	s, err := store.Open(ctx, kv,
		store.WithKey(cfg.StorageKey),
		store.WithCorruptPolicy(store.CorruptPolicy(cfg.CorruptState)),
	)
	if err != nil {
		return err
	}
	return fn(kv, s)
}

func runTUI(ctx context.Context, cfg config.RuntimeConfig) error {
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "tasklist")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	return withStore(ctx, cfg, func(_ storage.KV, s *store.Store) error {
		m := update.NewModel(s)
		defer m.Close()
		program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := program.Run()
		return err
	})
}

func listCmd(flags *rootFlags) *cobra.Command {
	var showUpdated bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), cfg, func(kv storage.KV, s *store.Store) error {
				out := cmd.OutOrStdout()
				for i, t := range s.Snapshot() {
					fmt.Fprintf(out, "%d. %s\n", i+1, t.Title)
				}
				if showUpdated {
					return printUpdated(cmd, kv, s.Key())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showUpdated, "updated", false, "print when the list was last saved (sqlite backend)")
	return cmd
}

func printUpdated(cmd *cobra.Command, kv storage.KV, key string) error {
	stamped, ok := kv.(storage.Timestamped)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "updated: unknown")
		return nil
	}
	at, err := stamped.UpdatedAt(cmd.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "updated: never")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated: %s\n", at.Local().Format(time.RFC3339))
	return nil
}

func addCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Append a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			task, err := model.NewTask(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), cfg, func(_ storage.KV, s *store.Store) error {
				if err := s.Append(cmd.Context(), task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d. %s\n", s.Len(), task.Title)
				return nil
			})
		},
	}
}

func doneCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done <row>",
		Short: "Complete (and remove) the task at a 1-based row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			row, err := strconv.Atoi(args[0])
			if err != nil || row < 1 {
				return fmt.Errorf("invalid row number: %s", args[0])
			}
			return withStore(cmd.Context(), cfg, func(_ storage.KV, s *store.Store) error {
				t, ok := s.At(row - 1)
				if !ok {
					return fmt.Errorf("no task at row %d", row)
				}
				if err := s.RemoveAt(cmd.Context(), row-1); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "completed %s\n", t.Title)
				return nil
			})
		},
	}
}

func resetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			kv, closeKV, err := openKV(cfg)
			if err != nil {
				return err
			}
			defer closeKV()
			if err := kv.Delete(cmd.Context(), cfg.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "task list cleared")
			return nil
		},
	}
}
