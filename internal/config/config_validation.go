// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Only cross-source invariants live here; per-runtime checks belong to
// [ClientConfig.validate].
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.Cache.RetentionDays < 0 || cfg.Storage.Cache.LRUSize < 0 {
		return ErrInvalidStorageConfigs
	}
	if cfg.Workers.DeltaThreshold < 0 {
		return ErrInvalidWorkerConfigs
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.Cache.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	switch cfg.Adapter.Mode {
	case AdapterModeHTTP:
		if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
			return ErrInvalidAdapterConfigs
		}
	case AdapterModePostgres:
		if cfg.Adapter.DSN == "" {
			return ErrInvalidAdapterConfigs
		}
	case AdapterModeMemory:
	default:
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.PruneDelay < 0 || cfg.Workers.DeltaThreshold <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
