package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// mergeFile overlays the TOML file at path onto c. Keys absent from the file
// keep their current values; durations are written as strings ("30s").
func (c *Config) mergeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("stat config file %s: %w", path, err)
	}

	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown key %s", path, undecoded[0].String())
	}

	return nil
}
