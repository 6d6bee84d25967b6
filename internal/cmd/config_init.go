package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opmodel/modpipe/internal/config"
	oerrors "github.com/opmodel/modpipe/internal/errors"
)

const configHeader = `# modpipe configuration.
# Validate with: modpipe config vet
`

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Write the default modpipe configuration.

The file is written to the resolved config path:
  --config flag > MODPIPE_CONFIG env > ~/.modpipe/config.yaml

It declares the base context (layer, compile-time environment, module and
resolve options), two example transitions and the module cache settings.

Examples:
  # Initialize configuration
  modpipe config init

  # Overwrite existing configuration
  modpipe config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	resolved, err := config.ResolveConfigPath(configFlag)
	if err != nil {
		return exitErrorFor(oerrors.Wrap(oerrors.ErrNotFound, "could not determine home directory"), false)
	}
	path, err := config.ExpandPath(resolved.Path)
	if err != nil {
		return &ExitError{Code: ExitGeneralError, Err: err}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return exitErrorFor(&oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: path,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		}, false)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.DefaultConfig()); err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("encoding default config: %w", err)}
	}
	if err := enc.Close(); err != nil {
		return &ExitError{Code: ExitGeneralError, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("could not create %s: %w", filepath.Dir(path), err)}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("could not write %s: %w", path, err)}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Configuration written to "+path)
	fmt.Fprintln(w, "Validate with: modpipe config vet")
	return nil
}
