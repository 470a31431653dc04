package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables that override file configuration.
const (
	EnvBackends    = "BATCHPLAN_BACKENDS"
	EnvConcurrency = "BATCHPLAN_CONCURRENCY"
	EnvStore       = "BATCHPLAN_STORE"
)

// ApplyEnv overrides cfg with any BATCHPLAN_* variables set in the
// environment. Empty values are ignored.
func ApplyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvBackends)); v != "" {
		cfg.Backends = SplitList(v)
	}

	if v := strings.TrimSpace(os.Getenv(EnvConcurrency)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: invalid concurrency %q", EnvConcurrency, v)
		}
		cfg.Concurrency = n
	}

	if v := strings.TrimSpace(os.Getenv(EnvStore)); v != "" {
		cfg.StorePath = v
	}

	return nil
}

// SplitList splits a comma separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
