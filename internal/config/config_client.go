package config

import (
	"fmt"
	"time"
)

// Adapter modes accepted by [ClientAdapter.Mode].
const (
	AdapterModeHTTP     = "http"
	AdapterModePostgres = "postgres"
	AdapterModeMemory   = "memory"
)

// Defaults applied by [GetClientConfig] to fields left empty by every source.
const (
	DefaultRetentionDays  = 30
	DefaultLRUSize        = 64
	DefaultRequestTimeout = 15 * time.Second
	DefaultSyncInterval   = 5 * time.Minute
	DefaultPruneDelay     = 5 * time.Second
	DefaultDeltaThreshold = 5
)

// ClientApp holds client-side application settings derived from the shared
// structured config.
type ClientApp struct {
	// HashKey is the HMAC key used for write request integrity checks.
	HashKey string
	// AuditEnabled turns on the local audit log.
	AuditEnabled bool
}

// ClientAdapter holds settings used by the remote transport layer.
type ClientAdapter struct {
	// Mode is one of AdapterModeHTTP, AdapterModePostgres, AdapterModeMemory.
	Mode string
	// HTTPAddress is the REST document store endpoint.
	HTTPAddress string
	// Token is the bearer token sent with every request.
	Token string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
	// DSN is the PostgreSQL connection string used in postgres mode.
	DSN string
}

// ClientCache contains local cache settings.
type ClientCache struct {
	// DSN is the SQLite file path, or ":memory:".
	DSN string
	// RetentionDays is the prune cutoff in days.
	RetentionDays int
	// LRUSize is the in-memory front cache size.
	LRUSize int
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// Cache holds local cache settings.
	Cache ClientCache
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often registered collections are refreshed.
	SyncInterval time.Duration
	// PruneDelay defines how long after start the cache prune runs.
	PruneDelay time.Duration
	// DeltaThreshold is the per-set query limit of the delta sync.
	DeltaThreshold int
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains remote transport settings.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, fills defaults and validates the resulting
// [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps a structured config onto the client view and applies
// defaults. It does not validate.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	clientCfg := &ClientConfig{
		App: ClientApp{
			HashKey:      cfg.App.HashKey,
			AuditEnabled: cfg.App.AuditEnabled,
		},
		Adapter: ClientAdapter{
			Mode:           cfg.Adapter.Mode,
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			Token:          cfg.Adapter.Token,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			DSN:            cfg.Storage.DB.DSN,
		},
		Storage: ClientStorage{
			Cache: ClientCache{
				DSN:           cfg.Storage.Cache.DSN,
				RetentionDays: cfg.Storage.Cache.RetentionDays,
				LRUSize:       cfg.Storage.Cache.LRUSize,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:   cfg.Workers.SyncInterval,
			PruneDelay:     cfg.Workers.PruneDelay,
			DeltaThreshold: cfg.Workers.DeltaThreshold,
		},
	}
	clientCfg.applyDefaults()

	return clientCfg
}

func (cfg *ClientConfig) applyDefaults() {
	if cfg.Adapter.Mode == "" {
		cfg.Adapter.Mode = AdapterModeHTTP
	}
	if cfg.Adapter.RequestTimeout == 0 {
		cfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Storage.Cache.RetentionDays == 0 {
		cfg.Storage.Cache.RetentionDays = DefaultRetentionDays
	}
	if cfg.Storage.Cache.LRUSize == 0 {
		cfg.Storage.Cache.LRUSize = DefaultLRUSize
	}
	if cfg.Workers.SyncInterval == 0 {
		cfg.Workers.SyncInterval = DefaultSyncInterval
	}
	if cfg.Workers.PruneDelay == 0 {
		cfg.Workers.PruneDelay = DefaultPruneDelay
	}
	if cfg.Workers.DeltaThreshold == 0 {
		cfg.Workers.DeltaThreshold = DefaultDeltaThreshold
	}
}

// GetStorageConfig loads the local storage settings from environment
// variables and the optional JSON file at jsonPath. Process flags are not
// parsed, so callers with their own flag set (the cachectl CLI) can use it.
// An empty cache DSN is accepted here; callers fill it before use.
func GetStorageConfig(jsonPath string) (*ClientStorage, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withConfigPath(jsonPath).
		withJSON().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	storage := NewClientConfig(cfg).Storage
	return &storage, nil
}
