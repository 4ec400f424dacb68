package host

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	hostKey        = "host"
	maxNestedDepth = 1
)

// ProviderConfig describes one provider slot. Endpoint is the JSON-RPC
// address of the agent bridge and may be empty for a slot that only lists
// sub-providers. Methods, when set, limits the methods it reports as
// supported.
type ProviderConfig struct {
	Name      string           `mapstructure:"name"`
	Endpoint  string           `mapstructure:"endpoint"`
	Flags     []string         `mapstructure:"flags"`
	Methods   []string         `mapstructure:"methods"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

// Config is the [host] table of the config file.
type Config struct {
	ClientIdentifier string                    `mapstructure:"client_identifier"`
	Injected         *ProviderConfig           `mapstructure:"injected"`
	Globals          map[string]ProviderConfig `mapstructure:"globals"`
}

// LoadConfig reads the [host] table. A missing table yields an empty host.
func LoadConfig(cfg *viper.Viper) (Config, error) {
	var out Config
	if cfg == nil || !cfg.IsSet(hostKey) {
		return out, nil
	}
	if err := cfg.UnmarshalKey(hostKey, &out); err != nil {
		return Config{}, fmt.Errorf("decode host config: %w", err)
	}
	if err := out.validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

func (c Config) validate() error {
	if c.Injected != nil {
		if err := c.Injected.validate("injected", 0); err != nil {
			return err
		}
	}
	for binding, provider := range c.Globals {
		if err := provider.validate("globals."+binding, maxNestedDepth); err != nil {
			return err
		}
	}
	return nil
}

func (p ProviderConfig) validate(path string, depth int) error {
	if strings.TrimSpace(p.Endpoint) == "" && len(p.Providers) == 0 {
		return fmt.Errorf("host provider %s: endpoint is required", path)
	}
	if len(p.Providers) > 0 && depth >= maxNestedDepth {
		return fmt.Errorf("host provider %s: nested provider lists are not supported", path)
	}
	for i, sub := range p.Providers {
		if err := sub.validate(fmt.Sprintf("%s.providers[%d]", path, i), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p ProviderConfig) flagSet() map[string]bool {
	flags := make(map[string]bool, len(p.Flags))
	for _, flag := range p.Flags {
		if flag = strings.TrimSpace(flag); flag != "" {
			flags[flag] = true
		}
	}
	return flags
}
