package inventory

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_groups.yaml
var defaultGroupsYAML []byte

// file is the on-disk YAML schema for an inventory definition.
type file struct {
	Groups []Group `yaml:"groups"`
}

// Load reads and validates the inventory definition at path.
func Load(path string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: open %q: %w", path, err)
	}
	defer f.Close()

	inv, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("inventory: parse %q: %w", path, err)
	}
	return inv, nil
}

// LoadFromReader decodes a YAML inventory definition from r and validates it.
func LoadFromReader(r io.Reader) (*Inventory, error) {
	var def file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("inventory: decode yaml: %w", err)
	}
	return New(def.Groups)
}

// LoadDefault returns the embedded default inventory: the A/B/C Spanish
// phrase set shipped with the binary.
func LoadDefault() (*Inventory, error) {
	var def file
	if err := yaml.Unmarshal(defaultGroupsYAML, &def); err != nil {
		return nil, fmt.Errorf("inventory: embedded default: %w", err)
	}
	return New(def.Groups)
}
