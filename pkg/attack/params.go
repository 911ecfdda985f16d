package attack

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// LoadParams reads an attack parameter mapping from a YAML file, in the
// shape SetParams expects. YAML keeps integer scalars as integers, so
// "layer: 2" passes the integer check while "layer: 2.5" is rejected by
// SetParams.
func LoadParams(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attack params: %w", err)
	}
	params := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parse attack params %s: %w", path, err)
	}
	return params, nil
}
