// Package config provides configuration management for Caldera Basalt.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CALDERA_SECTION_FIELD.
// For example:
//
//   - CALDERA_BUILD_MODULE_DIR overrides build.module_dir
//   - CALDERA_GATE_TIMEOUT overrides gate.timeout
//   - CALDERA_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
// CALDERA_BUILD_ROLES accepts a comma-separated role list.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Build.ModuleDir)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., module and snapshot directories)
//   - Range validation (e.g., sample ratio must be 0.0-1.0)
//   - Option validation (e.g., journal backend must be sqlite or memory)
//   - Conditional requirements (e.g., channel repository when the channel is enabled)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - build.output_format: invalid output format "toml": must be 'yaml' or 'json'
//	  - channel.repository: repository is required when the channel is enabled
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	platform:
//	  machine: "web01"
//	  environment: "production"
//
//	build:
//	  roles:
//	    - webgateway
//	    - postgresql14
//	  module_dir: "/var/lib/basalt/modules"
//
//	gate:
//	  dir: "/var/lib/basalt/certs"
//
//	journal:
//	  enabled: true
//	  backend: "sqlite"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes during
// reload operations.
package config
