package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load decodes any overrides viper has collected, overlays them onto the
// defaults and normalizes the result. The returned Config is fully resolved;
// nothing downstream reads viper again.
func Load(v *viper.Viper) (Config, error) {
	var override Config
	if err := v.Unmarshal(&override); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return Resolve(Merge(Default(), override)), nil
}
