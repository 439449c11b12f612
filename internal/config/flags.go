package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags from the process arguments.
//
// Flags:
//
//	-a remote document store address in format [host]:[port]
//	-mode remote mode: http, postgres or memory
//	-token bearer token for the remote store
//	-d remote PostgreSQL DSN (postgres mode)
//	-cache local cache SQLite path
//	-retention-days cache retention in days
//	-lru-size in-memory cache entries
//	-c/-config json file path with configs
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-sync-interval refresh interval (e.g., "5m")
//	-prune-delay delay before the startup prune (e.g., "5s")
//	-delta-threshold stale sets above which items are fetched in one batch
//	-hash-key request integrity hash key
//	-audit enable the local audit log
func ParseFlags() (*StructuredConfig, error) {
	return parseFlags(os.Args[1:])
}

func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("studysync", flag.ContinueOnError)

	var adapterAddress NetAddress
	var mode string
	var token string
	var databaseDSN string
	var cacheDSN string
	var retentionDays int
	var lruSize int
	var jsonConfigPath string
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var pruneDelay time.Duration
	var deltaThreshold int
	var hashKey string
	var audit bool

	fs.Var(&adapterAddress, "a", "Remote store address host:port")
	fs.StringVar(&mode, "mode", "", "Remote mode: http, postgres or memory")
	fs.StringVar(&token, "token", "", "Remote bearer token")
	fs.StringVar(&databaseDSN, "d", "", "Remote PostgreSQL DSN")
	fs.StringVar(&cacheDSN, "cache", "", "Local cache path")
	fs.IntVar(&retentionDays, "retention-days", 0, "Cache retention in days")
	fs.IntVar(&lruSize, "lru-size", 0, "In-memory cache entries")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Refresh interval (e.g., 5m)")
	fs.DurationVar(&pruneDelay, "prune-delay", 0, "Delay before the startup prune (e.g., 5s)")
	fs.IntVar(&deltaThreshold, "delta-threshold", 0, "Stale sets above which items are batch-fetched")
	fs.StringVar(&hashKey, "hash-key", "", "Request integrity hash key")
	fs.BoolVar(&audit, "audit", false, "Enable the local audit log")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			HashKey:      hashKey,
			AuditEnabled: audit,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Cache: Cache{
				DSN:           cacheDSN,
				RetentionDays: retentionDays,
				LRUSize:       lruSize,
			},
		},
		Adapter: Adapter{
			Mode:           mode,
			HTTPAddress:    adapterAddress.String(),
			Token:          token,
			RequestTimeout: requestTimeout,
		},
		Workers: Workers{
			SyncInterval:   syncInterval,
			PruneDelay:     pruneDelay,
			DeltaThreshold: deltaThreshold,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
