// Command planner-lite is the planner without categories: tasks have a name,
// a due time and a reminder, and the interactive view offers only the time
// filters.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"planner/internal/config"
	"planner/internal/notify"
	"planner/internal/planner"
	"planner/internal/storage"
	"planner/internal/ui"
)

func main() {
	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(2)
	}
	cfg.Categories = false

	store, err := storage.Open(cfg.Backend, cfg.StorePath, cfg.StoreOptions())
	if err != nil {
		fmt.Printf("failed to open task store: %v\n", err)
		os.Exit(2)
	}
	defer store.Close()

	if cfg.LogPath != "" {
		f, err := tea.LogToFile(cfg.LogPath, "planner-lite")
		if err != nil {
			fmt.Printf("failed to open log: %v\n", err)
			os.Exit(2)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	p := planner.New(store, planner.Options{
		Notifier: notify.Chain{notify.Desktop{}, notify.Log{}},
		Logger:   log.Default(),
	})
	notice := ""
	if err := p.Load(); err != nil {
		if !errors.Is(err, storage.ErrReset) {
			fmt.Printf("failed to load tasks: %v\n", err)
			os.Exit(2)
		}
		log.Printf("Warning: %v", err)
		notice = "Your saved tasks could not be read, so the planner is starting fresh."
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := ui.Run(ctx, p, cfg, notice); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
