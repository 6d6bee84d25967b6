// Package config loads the modpipe configuration file and turns it into the
// initial asset context.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opmodel/modpipe/internal/core"
	"github.com/opmodel/modpipe/internal/transition"
	"github.com/opmodel/modpipe/internal/transitions"
)

// TransitionConfig declares one named transition.
type TransitionConfig struct {
	Name       string         `json:"name" yaml:"name" mapstructure:"name"`
	Type       string         `json:"type" yaml:"type" mapstructure:"type"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// Spec converts the entry for transitions.Build.
func (t TransitionConfig) Spec() (transitions.Spec, error) {
	spec := transitions.Spec{Name: t.Name, Type: t.Type}
	if t.Parameters != nil {
		raw, err := json.Marshal(t.Parameters)
		if err != nil {
			return transitions.Spec{}, fmt.Errorf("transition %q: encoding parameters: %w", t.Name, err)
		}
		spec.Parameters = raw
	}
	return spec, nil
}

// CacheConfig controls the memo cache.
type CacheConfig struct {
	// TTL is how long a result stays cached.
	// Env: MODPIPE_CACHE_TTL, Default: 10m
	TTL time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty" mapstructure:"ttl"`

	// Capacity bounds the number of cached results.
	// Env: MODPIPE_CACHE_CAPACITY, Default: 1024
	Capacity uint64 `json:"capacity,omitempty" yaml:"capacity,omitempty" mapstructure:"capacity"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" yaml:"timestamps,omitempty" mapstructure:"timestamps"`
}

// Config represents the modpipe configuration.
// Loaded from ~/.modpipe/config.yaml, validated against the embedded CUE schema.
type Config struct {
	// Layer is the layer of the initial context.
	// Env: MODPIPE_LAYER
	Layer string `json:"layer,omitempty" yaml:"layer,omitempty" mapstructure:"layer"`

	// CompileTime is the initial compile-time info.
	// Env: MODPIPE_ENVIRONMENT overrides compileTime.environment.
	CompileTime core.CompileTimeInfo `json:"compileTime,omitempty" yaml:"compileTime,omitempty" mapstructure:"compileTime"`

	// ModuleOptions are the initial module options.
	// Env: MODPIPE_STRICT overrides moduleOptions.strict.
	ModuleOptions core.ModuleOptions `json:"moduleOptions,omitempty" yaml:"moduleOptions,omitempty" mapstructure:"moduleOptions"`

	// ResolveOptions are the initial resolve options.
	ResolveOptions core.ResolveOptions `json:"resolveOptions,omitempty" yaml:"resolveOptions,omitempty" mapstructure:"resolveOptions"`

	// Transitions are the named transitions selectable with --transition.
	Transitions []TransitionConfig `json:"transitions,omitempty" yaml:"transitions,omitempty" mapstructure:"transitions"`

	// Cache controls the memo cache.
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty" mapstructure:"cache"`

	// Log contains logging-related settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty" mapstructure:"log"`
}

// DefaultConfig returns a Config with all default values populated.
// Used by `modpipe config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		Layer:       "app",
		CompileTime: core.CompileTimeInfo{Environment: "node"},
		ModuleOptions: core.ModuleOptions{
			Formats: []string{"cue", "json", "yaml"},
		},
		ResolveOptions: core.ResolveOptions{
			Extensions: []string{".cue", ".json", ".yaml"},
		},
		Transitions: []TransitionConfig{
			{
				Name: "client",
				Type: transitions.TypeWrap,
				Parameters: map[string]any{
					"wrapper": "client-reference",
					"suffix":  "/client",
				},
			},
			{
				Name: "edge",
				Type: transitions.TypeEnvironment,
				Parameters: map[string]any{
					"environment": "edge",
					"layer":       "edge",
				},
			},
		},
		Cache: CacheConfig{
			TTL:      10 * time.Minute,
			Capacity: 1024,
		},
	}
}

// Specs converts all transition entries.
func (c *Config) Specs() ([]transitions.Spec, error) {
	specs := make([]transitions.Spec, 0, len(c.Transitions))
	for _, t := range c.Transitions {
		s, err := t.Spec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// TransitionKeys maps each configured transition name to its Spec.Key.
func (c *Config) TransitionKeys() (map[string]string, error) {
	specs, err := c.Specs()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]string, len(specs))
	for _, s := range specs {
		k, err := s.Key()
		if err != nil {
			return nil, err
		}
		keys[s.Name] = k
	}
	return keys, nil
}

// Registry builds the configured transitions.
func (c *Config) Registry() (transition.Registry, error) {
	specs, err := c.Specs()
	if err != nil {
		return transition.Registry{}, err
	}
	return transitions.Build(specs)
}

// AssetContext builds the initial context: the configured fields plus the
// configured transitions as its registry.
func (c *Config) AssetContext() (*transition.AssetContext, error) {
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	return transition.NewAssetContext(reg, c.CompileTime, c.ModuleOptions, c.ResolveOptions, c.Layer), nil
}
