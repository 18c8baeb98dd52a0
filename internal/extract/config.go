package extract

import (
	"encoding/json"
	"fmt"
	"os"
)

// FieldRule describes how one logical field is pulled out of a listing
// container. Selector is a CSS selector evaluated relative to the container.
type FieldRule struct {
	// Selector locates the first matching descendant of the container
	Selector string `json:"selector"`

	// Attribute names the attribute to read; empty means the element's text
	Attribute string `json:"attribute,omitempty"`

	// DefaultValue substitutes when nothing matches or the value trims empty
	DefaultValue string `json:"defaultValue,omitempty"`

	// Prefix is prepended to every extracted (non-default) value
	Prefix string `json:"prefix,omitempty"`
}

// SiteConfig is the declarative extraction configuration for one directory.
type SiteConfig struct {
	Name             string               `json:"name"`
	ListingContainer string               `json:"listingContainer"`
	Fields           map[string]FieldRule `json:"fields"`
}

// ConfigSet maps directory names to their extraction configurations.
type ConfigSet map[string]SiteConfig

// LoadConfigs reads a selector configuration file.
// A missing file yields an empty set, not an error.
func LoadConfigs(path string) (ConfigSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ConfigSet{}, nil
		}
		return nil, fmt.Errorf("read selector config: %w", err)
	}

	set := ConfigSet{}
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse selector config: %w", err)
	}

	// Backfill names from map keys so configs don't have to repeat them.
	for key, cfg := range set {
		if cfg.Name == "" {
			cfg.Name = key
			set[key] = cfg
		}
	}

	return set, nil
}

// Validate checks that a config can drive an extraction pass.
func (c SiteConfig) Validate() error {
	if c.ListingContainer == "" {
		return fmt.Errorf("config %q: listingContainer is required", c.Name)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("config %q: at least one field is required", c.Name)
	}
	for name, rule := range c.Fields {
		if rule.Selector == "" {
			return fmt.Errorf("config %q: field %q has no selector", c.Name, name)
		}
	}
	return nil
}
