package config

import (
	"fmt"
	"sync"
)

var (
	// current holds the process-wide configuration instance.
	current *Config

	// mu protects access to current.
	mu sync.RWMutex

	// once ensures configuration is initialized only once.
	once sync.Once
)

// Initialize loads configuration from path, applies environment overrides,
// and stores the result as the process-wide instance. Only the first call
// loads anything; later calls return nil without touching the stored
// config, so init-order races cannot swap it mid-run.
func Initialize(path string) error {
	var initErr error

	once.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		mu.Lock()
		current = cfg
		mu.Unlock()
	})

	return initErr
}

// GetConfig returns the process-wide configuration, or nil before the
// first successful Initialize or SetConfig. Safe for concurrent use.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetConfig stores cfg as the process-wide instance. Callers that
// assemble configuration outside Initialize, such as commands with
// builtin-defaults fallbacks or tests, publish it here.
func SetConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// ReloadConfig loads path again and swaps the process-wide instance.
// On error the previous configuration stays in place.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	mu.Lock()
	current = cfg
	mu.Unlock()

	return nil
}

// MustGetConfig returns the process-wide configuration and panics when
// none has been stored. Only for paths that run strictly after startup
// succeeded; elsewhere use GetConfig and handle nil.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
