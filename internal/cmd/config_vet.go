package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/opmodel/modpipe/internal/config"
	oerrors "github.com/opmodel/modpipe/internal/errors"
	"github.com/opmodel/modpipe/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the modpipe configuration file.

Checks performed:
  1. Config file exists at the resolved path
  2. Config file matches the configuration schema
  3. Every transition has a known type and valid parameters

The config path is resolved using precedence:
  --config flag > MODPIPE_CONFIG env > ~/.modpipe/config.yaml

Examples:
  # Validate default configuration
  modpipe config vet

  # Validate custom config path
  modpipe config vet --config /path/to/config.yaml`,
		Args: cobra.NoArgs,
		RunE: runConfigVet,
	}
}

func runConfigVet(cmd *cobra.Command, _ []string) error {
	resolved, err := config.ResolveConfigPath(configFlag)
	if err != nil {
		return exitErrorFor(oerrors.Wrap(oerrors.ErrNotFound, "could not resolve config path"), false)
	}

	output.Debug("validating config",
		"path", resolved.Path,
		"source", resolved.Source,
	)

	v, err := config.NewValidator()
	if err != nil {
		return &ExitError{Code: ExitGeneralError, Err: err}
	}

	if err := v.ValidateFile(afero.NewOsFs(), resolved.Path); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				output.Error("invalid configuration", "field", e.Field, "error", e.Message)
			}
			return &ExitError{Code: ExitValidationError, Err: err, Printed: true}
		}
		printError("validating configuration", err)
		return exitErrorFor(err, true)
	}

	fmt.Fprintln(cmd.OutOrStdout(), output.FormatCheckmark("Configuration is valid: "+resolved.Path))
	return nil
}
