package main

import (
	"errors"
	"fmt"
	"log"

	"planner/internal/config"
	"planner/internal/notify"
	"planner/internal/planner"
	"planner/internal/storage"
	"planner/internal/task"
)

const resetNotice = "Your saved tasks could not be read, so the planner is starting fresh."

// app is one opened planner: config, store and engine.
type app struct {
	cfg     config.Config
	store   storage.Store
	planner *planner.Planner
	// notice is a one-time warning for the user, set when storage was reset.
	notice string
}

func openApp(path string, notifier notify.Notifier) (*app, error) {
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, exitError{code: exitStorage, err: fmt.Errorf("failed to load config: %w", err)}
	}

	store, err := storage.Open(cfg.Backend, cfg.StorePath, cfg.StoreOptions())
	if err != nil {
		return nil, exitError{code: exitStorage, err: fmt.Errorf("failed to open task store: %w", err)}
	}

	if notifier == nil {
		notifier = newNotifier(cfg)
	}
	a := &app{
		cfg:   cfg,
		store: store,
		planner: planner.New(store, planner.Options{
			Notifier:   notifier,
			Logger:     log.Default(),
			Categories: cfg.Categories,
		}),
	}
	if err := a.planner.Load(); err != nil {
		if !errors.Is(err, storage.ErrReset) {
			store.Close()
			return nil, exitError{code: exitStorage, err: fmt.Errorf("failed to load tasks: %w", err)}
		}
		log.Printf("Warning: %v", err)
		a.notice = resetNotice
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// newNotifier builds the reminder notifier named by the config. Every choice
// that can fail falls back to the log.
func newNotifier(cfg config.Config) notify.Notifier {
	logged := notify.Log{}
	switch cfg.Notifier {
	case config.NotifierNone:
		return notify.Nop{}
	case config.NotifierLog:
		return logged
	case config.NotifierDesktop:
		return notify.Chain{notify.Desktop{}, logged}
	case config.NotifierCommand:
		return notify.Chain{notify.Command{Argv: cfg.NotifyCommand}, logged}
	default:
		if len(cfg.NotifyCommand) > 0 {
			return notify.Chain{notify.Command{Argv: cfg.NotifyCommand}, notify.Desktop{}, logged}
		}
		return notify.Chain{notify.Desktop{}, logged}
	}
}

func (a *app) complete(id string) (task.Task, error) {
	return a.planner.Complete(id)
}

func (a *app) reopen(id string) (task.Task, error) {
	return a.planner.Reopen(id)
}
