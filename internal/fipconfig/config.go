// Package fipconfig loads the two TOML configuration surfaces FIP
// treats as consumed interfaces rather than protocol content: the
// master's list of enabled modules, and each module's own free-form
// config blob. Both are read with viper; the per-module blob is decoded
// into a caller-supplied struct with mapstructure, since its schema is
// module-defined and not known to this package.
package fipconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// MaxEnabledModules is FIP_MAX_ENABLED_MODULES.
const MaxEnabledModules = 16

// ModuleConfigDir is where each enabled module's own config file lives,
// relative to the project root.
const ModuleConfigDir = ".fip/config"

// ErrTooManyModules is returned when a master config file enables more
// than MaxEnabledModules tables.
var ErrTooManyModules = errors.New("fipconfig: too many enabled modules")

// MasterConfig is the result of scanning a master TOML file for
// fip-prefixed tables with enable = true.
type MasterConfig struct {
	EnabledModules []string
}

// LoadMaster reads path and returns the enabled-modules list: every
// top-level table whose name starts with "fip-" and whose "enable" key
// is true, sorted for deterministic spawn order.
func LoadMaster(path string) (*MasterConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fipconfig: reading %s: %w", path, err)
	}

	var enabled []string
	for key := range v.AllSettings() {
		if !strings.HasPrefix(key, "fip-") {
			continue
		}
		if v.GetBool(key + ".enable") {
			enabled = append(enabled, key)
		}
	}
	sort.Strings(enabled)

	if len(enabled) > MaxEnabledModules {
		return nil, fmt.Errorf("%w: found %d, cap is %d", ErrTooManyModules, len(enabled), MaxEnabledModules)
	}

	return &MasterConfig{EnabledModules: enabled}, nil
}

// ModulePath returns the path of moduleName's own config file under
// projectRoot.
func ModulePath(projectRoot, moduleName string) string {
	return filepath.Join(projectRoot, ModuleConfigDir, moduleName+".toml")
}

// LoadModule reads moduleName's config file under projectRoot and
// decodes it into out, a pointer to a module-defined struct.
func LoadModule(projectRoot, moduleName string, out interface{}) error {
	path := ModulePath(projectRoot, moduleName)

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("fipconfig: reading %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "toml",
	})
	if err != nil {
		return err
	}
	return dec.Decode(v.AllSettings())
}
