package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/MKhiriev/go-study-sync/internal/config"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/spf13/cobra"
)

var errNoCacheDSN = errors.New("no cache configured: pass --cache or set STORAGE_CACHE_DSN")

func openStorages(ctx context.Context) (*store.ClientStorages, *config.ClientStorage, error) {
	cfg, err := config.GetStorageConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cacheDSN != "" {
		cfg.Cache.DSN = cacheDSN
	}
	if cfg.Cache.DSN == "" {
		return nil, nil, errNoCacheDSN
	}

	log := logger.NewWriterLogger(os.Stderr, "cachectl")
	storages, err := store.NewClientStorages(ctx, *cfg, clock, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache %s: %w", cfg.Cache.DSN, err)
	}
	return storages, cfg, nil
}

func listEntries(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	storages, _, err := openStorages(ctx)
	if err != nil {
		return err
	}
	defer storages.Close()

	fmt.Fprint(cmd.OutOrStdout(), renderEntries(storages.Cache.Keys(ctx), clock.Now()))
	return nil
}

func dumpEntry(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	storages, _, err := openStorages(ctx)
	if err != nil {
		return err
	}
	defer storages.Close()

	entry, ok := storages.Cache.Get(ctx, args[0])
	if !ok {
		return fmt.Errorf("no cache entry %q", args[0])
	}

	var out bytes.Buffer
	if err = json.Indent(&out, entry.Data, "", "  "); err != nil {
		return fmt.Errorf("entry %q is not valid JSON: %w", args[0], err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(cmd.OutOrStdout())
	return err
}

func pruneEntries(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	storages, cfg, err := openStorages(ctx)
	if err != nil {
		return err
	}
	defer storages.Close()

	days := cfg.Cache.RetentionDays
	if pruneDays > 0 {
		days = pruneDays
	}

	removed := storages.Cache.Prune(ctx, days)
	fmt.Fprintln(cmd.OutOrStdout(), renderPruned(removed, days))
	return nil
}

func listAudit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	storages, _, err := openStorages(ctx)
	if err != nil {
		return err
	}
	defer storages.Close()

	entries, err := storages.Audit.List(ctx, auditLimit)
	if err != nil {
		return fmt.Errorf("reading audit log: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderAudit(entries))
	return nil
}
