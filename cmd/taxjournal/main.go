package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samvad-hq/taxjar-adapter/internal/config"
	"github.com/samvad-hq/taxjar-adapter/internal/journal"
	"github.com/samvad-hq/taxjar-adapter/internal/logger"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taxjournal failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("taxjournal", pflag.ContinueOnError)
	limit := fs.IntP("limit", "n", 20, "number of entries to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	store, err := journal.NewStore(cfg.JournalType, cfg.JournalPath, journal.Options{
		EntryTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(*limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	logger.DebugObj("journal entries loaded", "journal", map[string]any{
		"type":  cfg.JournalType,
		"count": len(entries),
	})

	enc := json.NewEncoder(os.Stdout)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
