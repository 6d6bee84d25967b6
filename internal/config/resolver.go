package config

import (
	"os"

	"github.com/opmodel/modpipe/internal/output"
)

// Source indicates where a configuration value came from.
type Source string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag Source = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv Source = "env"
	// SourceDefault indicates value is the built-in default.
	SourceDefault Source = "default"
)

// ResolvedPath is a config file path and where it came from.
type ResolvedPath struct {
	// Path is the resolved config file path.
	Path string
	// Source indicates where the path came from.
	Source Source
	// Shadowed contains values overridden by higher precedence.
	Shadowed map[Source]string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) MODPIPE_CONFIG env, (3) ~/.modpipe/config.yaml.
func ResolveConfigPath(flagValue string) (ResolvedPath, error) {
	result := ResolvedPath{Shadowed: make(map[Source]string)}

	paths, err := DefaultPaths()
	if err != nil {
		return result, err
	}
	envValue := os.Getenv("MODPIPE_CONFIG")

	switch {
	case flagValue != "":
		result.Path, result.Source = flagValue, SourceFlag
		if envValue != "" {
			result.Shadowed[SourceEnv] = envValue
		}
		result.Shadowed[SourceDefault] = paths.ConfigFile
	case envValue != "":
		result.Path, result.Source = envValue, SourceEnv
		result.Shadowed[SourceDefault] = paths.ConfigFile
	default:
		result.Path, result.Source = paths.ConfigFile, SourceDefault
	}

	output.Debug("config path resolved", "path", result.Path, "source", result.Source)
	for source, shadowed := range result.Shadowed {
		output.Debug("  shadowed by higher precedence", "source", source, "path", shadowed)
	}
	return result, nil
}
