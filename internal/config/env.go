// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv reads the environment layer of cfg. A variable name is the
// envPrefix chain followed by the env tag, so the cache file that studysync
// and cachectl share is STORAGE_CACHE_DSN. Unset variables leave their fields
// zero; the flag and JSON layers merge over them and [ClientConfig] fills
// whatever is still missing with defaults.
func parseEnv(cfg *StructuredConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvConfigs, err)
	}
	return nil
}
