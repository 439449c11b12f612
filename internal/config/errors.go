package config

import "errors"

// Validation errors returned by [ClientConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidEnvConfigs indicates an environment variable that cannot be
	// converted to its field type (for example, STORAGE_CACHE_LRU_SIZE=big).
	ErrInvalidEnvConfigs = errors.New("invalid environment configuration")
	// ErrInvalidAdapterConfigs indicates invalid remote adapter settings
	// (for example, unknown mode or missing HTTP address).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid cache settings
	// (for example, empty cache DSN or negative retention).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero sync interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
