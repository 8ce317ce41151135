package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a catalog overlay.
type catalogFile struct {
	Version string `yaml:"version"`
	Roles   []Role `yaml:"roles"`
}

// Load builds the effective catalog: the builtin role table with an
// optional overlay file layered on top. An empty path returns the
// builtin catalog unchanged.
func Load(path string) (*Catalog, error) {
	base := Builtin()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %q: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %q: %w", path, err)
	}

	merged, err := base.WithRoles(file.Version, file.Roles)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog file %q: %w", path, err)
	}
	return merged, nil
}
