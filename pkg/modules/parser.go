package modules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// moduleFile is the on-disk shape of a module definition file. Option
// values may be nested maps; the parser flattens them to dotted paths.
type moduleFile struct {
	Options map[string]any `yaml:"options"`
}

// ParseModuleFile reads a module definition file and returns its options
// as a flat map from dotted option path to value.
func ParseModuleFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseModuleData(data, path)
}

func parseModuleData(data []byte, path string) (map[string]any, error) {
	var file moduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse module file %s: %w", path, err)
	}

	flat := make(map[string]any)
	if err := flattenOptions("", file.Options, flat); err != nil {
		return nil, fmt.Errorf("invalid module file %s: %w", path, err)
	}
	return flat, nil
}

// flattenOptions walks nested option maps and records leaf values under
// their dotted paths. Keys may themselves contain dots, so a document can
// mix nested and flat style. Defining the same path twice is an error;
// an empty nested map contributes nothing.
func flattenOptions(prefix string, raw map[string]any, out map[string]any) error {
	for key, value := range raw {
		if key == "" {
			if prefix == "" {
				return fmt.Errorf("empty option key")
			}
			return fmt.Errorf("empty option key under %q", prefix)
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			if err := flattenOptions(path, nested, out); err != nil {
				return err
			}
			continue
		}
		if _, exists := out[path]; exists {
			return fmt.Errorf("option %q defined twice", path)
		}
		out[path] = value
	}
	return nil
}
