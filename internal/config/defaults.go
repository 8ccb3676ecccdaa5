package config

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// setDefaults registers every leaf of DefaultConfig as a viper default, so
// a config file may override a single nested key (structuring.model) without
// restating its section, and BULLETIN_* env vars bind to every known key.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}
	var tree map[interface{}]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to unmarshal defaults: %w", err)
	}
	for key, value := range DefaultKeys(tree, "") {
		v.SetDefault(key, value)
	}
	return nil
}

// DefaultKeys flattens a YAML tree into dotted keys.
func DefaultKeys(tree map[interface{}]interface{}, prefix string) map[string]interface{} {
	out := make(map[string]interface{})
	for k, value := range tree {
		key := fmt.Sprint(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[interface{}]interface{}); ok && len(sub) > 0 {
			for sk, sv := range DefaultKeys(sub, key) {
				out[sk] = sv
			}
			continue
		}
		out[key] = value
	}
	return out
}
