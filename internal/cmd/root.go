// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/modpipe/internal/config"
	"github.com/opmodel/modpipe/internal/output"
)

var (
	// Global flags
	configFlag     string
	verboseFlag    bool
	timestampsFlag bool

	// Resolved configuration (loaded during PersistentPreRunE)
	loadedConfig   *config.Config
	configLoadErr  error
	resolvedConfig config.ResolvedPath
)

// NewRootCmd creates the root command for modpipe.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modpipe",
		Short: "Module transition pipeline",
		Long: `modpipe runs source files through configurable transitions and loads
them as CUE, JSON or YAML modules.

A transition rewrites the source, the compile-time environment, the module
and resolve options and the layer before loading, and may post-process the
loaded module. Transitions are declared by name in the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: MODPIPE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewProcessCmd())
	rootCmd.AddCommand(NewDiffCmd())
	rootCmd.AddCommand(NewTransitionsCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging. A config that
// fails to load is remembered; only commands that need it fail.
func initializeGlobals(cmd *cobra.Command) error {
	resolved, err := config.ResolveConfigPath(configFlag)
	if err != nil {
		return err
	}
	resolvedConfig = resolved

	loadedConfig, configLoadErr = config.NewLoader().Load(resolved.Path)
	if configLoadErr != nil {
		output.Debug("config load error", "error", configLoadErr)
	}

	// Timestamps: flag (if explicitly set) > config > default (nil = true)
	logCfg := output.LogConfig{
		Verbose: verboseFlag,
		Writer:  cmd.ErrOrStderr(),
	}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if loadedConfig != nil && loadedConfig.Log.Timestamps != nil {
		logCfg.Timestamps = loadedConfig.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if verboseFlag {
		output.Debug("initializing CLI",
			"config", resolvedConfig.Path,
			"source", resolvedConfig.Source,
		)
	}
	return nil
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*config.Config, error) {
	if configLoadErr != nil {
		return nil, &ExitError{Code: ExitValidationError, Err: configLoadErr}
	}
	if loadedConfig == nil {
		return config.DefaultConfig(), nil
	}
	return loadedConfig, nil
}

// GetConfigPath returns the resolved config path value.
func GetConfigPath() string {
	if resolvedConfig.Path != "" {
		return resolvedConfig.Path
	}
	return configFlag
}
