package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variable prefix for modpipe configuration.
const envPrefix = "MODPIPE"

// Loader handles loading and merging configuration from the config file and
// the environment.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader creates a new configuration loader reading from the OS filesystem.
func NewLoader() *Loader {
	return NewLoaderFs(afero.NewOsFs())
}

// NewLoaderFs creates a configuration loader reading from fsys.
func NewLoaderFs(fsys afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fsys)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("layer", "MODPIPE_LAYER")
	_ = v.BindEnv("compileTime.environment", "MODPIPE_ENVIRONMENT")
	_ = v.BindEnv("moduleOptions.strict", "MODPIPE_STRICT")
	_ = v.BindEnv("cache.ttl", "MODPIPE_CACHE_TTL")
	_ = v.BindEnv("cache.capacity", "MODPIPE_CACHE_CAPACITY")
	_ = v.BindEnv("log.timestamps", "MODPIPE_LOG_TIMESTAMPS")

	d := DefaultConfig()
	v.SetDefault("layer", d.Layer)
	v.SetDefault("compileTime.environment", d.CompileTime.Environment)
	v.SetDefault("moduleOptions.formats", d.ModuleOptions.Formats)
	v.SetDefault("resolveOptions.extensions", d.ResolveOptions.Extensions)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.capacity", d.Cache.Capacity)

	return &Loader{v: v, fs: fsys}
}

// Load loads configuration from the given file path. A missing file is not
// an error: defaults, including the default transitions, and environment
// variables still apply.
//
// Scalar settings come from viper so environment variables take precedence
// over file values. viper folds map keys to lower case, so map-valued
// settings (defines, aliases, transition parameters) are decoded from the
// file directly.
func (l *Loader) Load(configFile string) (*Config, error) {
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	var data []byte
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		data, err = afero.ReadFile(l.fs, expandedPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if data == nil {
		cfg.Transitions = DefaultConfig().Transitions
		return &cfg, nil
	}

	var exact Config
	if err := yaml.Unmarshal(data, &exact); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.CompileTime.Defines = exact.CompileTime.Defines
	cfg.ResolveOptions.Alias = exact.ResolveOptions.Alias
	cfg.Transitions = exact.Transitions

	return &cfg, nil
}

// ConfigFileExists checks if the config file exists.
func (l *Loader) ConfigFileExists(configFile string) (bool, error) {
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}
	return afero.Exists(l.fs, expandedPath)
}
