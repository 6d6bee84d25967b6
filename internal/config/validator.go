package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	oerrors "github.com/opmodel/modpipe/internal/errors"
)

//go:embed schema/config.cue
var configSchemaCUE []byte

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes validation errors match errors.ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == oerrors.ErrValidation
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString("  ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Is makes validation errors match errors.ErrValidation.
func (e ValidationErrors) Is(target error) bool {
	return target == oerrors.ErrValidation
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(configSchemaCUE, cue.Filename("config.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return nil, fmt.Errorf("schema has no #Config definition")
	}

	return &Validator{ctx: ctx, schema: def}, nil
}

// ValidateData checks raw YAML config data against the schema. Empty data is
// a valid, empty config.
func (v *Validator) ValidateData(name string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}

	value := v.ctx.CompileBytes(j, cue.Filename(name))
	if err := value.Err(); err != nil {
		return toValidationErrors(err)
	}

	if err := v.schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// Validate checks a loaded configuration: durations, capacities and the
// transition definitions themselves.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Cache.TTL < 0 {
		errs = append(errs, ValidationError{Field: "cache.ttl", Message: "must not be negative"})
	}

	if _, err := cfg.Registry(); err != nil {
		errs = append(errs, ValidationError{Field: "transitions", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateFile validates the schema and the loaded values of the
// configuration file at path.
func (v *Validator) ValidateFile(fsys afero.Fs, path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}

	data, err := afero.ReadFile(fsys, expanded)
	if err != nil {
		return oerrors.NewNotFoundError(err.Error(), expanded, "Run 'modpipe config init' to create one.")
	}
	if err := v.ValidateData(expanded, data); err != nil {
		return err
	}

	cfg, err := NewLoaderFs(fsys).Load(expanded)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	return v.Validate(cfg)
}

func toValidationErrors(err error) ValidationErrors {
	var errs ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   fieldPath(e.Path()),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(errs) == 0 {
		errs = append(errs, ValidationError{Message: err.Error()})
	}
	return errs
}

// fieldPath joins a CUE error path relative to the config root, dropping the
// schema definition it was reported under.
func fieldPath(p []string) string {
	if len(p) > 0 && strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return strings.Join(p, ".")
}
