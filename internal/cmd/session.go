package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/opmodel/modpipe/internal/config"
	"github.com/opmodel/modpipe/internal/core"
	oerrors "github.com/opmodel/modpipe/internal/errors"
	"github.com/opmodel/modpipe/internal/loader"
	"github.com/opmodel/modpipe/internal/memo"
	"github.com/opmodel/modpipe/internal/metrics"
	"github.com/opmodel/modpipe/internal/output"
	"github.com/opmodel/modpipe/internal/transition"
)

// session holds what every pipeline run of one command shares.
type session struct {
	cfg  *config.Config
	ac   *transition.AssetContext
	pipe *memo.Pipeline
	fs   afero.Fs
	ref  core.ReferenceType

	// keys identify configured transitions in the memo cache by name and
	// definition.
	keys map[string]string
}

func newSession(referenceFlag string) (*session, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, err
	}

	ref, err := core.ParseReferenceType(referenceFlag)
	if err != nil {
		return nil, &ExitError{Code: ExitValidationError, Err: err}
	}

	ac, err := cfg.AssetContext()
	if err != nil {
		return nil, exitErrorFor(err, false)
	}

	keys, err := cfg.TransitionKeys()
	if err != nil {
		return nil, exitErrorFor(err, false)
	}

	metrics.Register()
	return &session{
		cfg: cfg,
		ac:  ac,
		pipe: memo.New(loader.New(),
			memo.WithTTL(cfg.Cache.TTL),
			memo.WithCapacity(cfg.Cache.Capacity),
		),
		fs:   afero.NewOsFs(),
		ref:  ref,
		keys: keys,
	}, nil
}

// selectTransition looks name up in the configured registry. An empty name
// selects no transition. Unless allowMissing is set, an unknown name is a
// validation error; otherwise it falls back to no transition.
func (s *session) selectTransition(name string, allowMissing bool) (transition.Transition, error) {
	if name == "" {
		return transition.None, nil
	}
	reg := s.ac.Transitions()
	if _, ok := reg.Lookup(name); !ok && !allowMissing {
		hint := "No transitions are configured."
		if reg.Len() > 0 {
			hint = "Configured transitions: " + strings.Join(reg.Names(), ", ")
		}
		return nil, oerrors.NewValidationError(fmt.Sprintf("unknown transition %q", name), GetConfigPath(), "transitions", hint)
	}
	return s.ac.WithTransition(name).Transition, nil
}

// run processes the file at path and records the outcome.
func (s *session) run(ctx context.Context, name string, t transition.Transition, path string) (core.ProcessResult, error) {
	res, err := s.pipe.Process(ctx, s.cacheKey(name), t, core.NewFileSource(s.fs, path), s.ac, s.ref)
	switch {
	case err != nil:
		metrics.RecordProcess(name, metrics.OutcomeError)
	case res.IsIgnore():
		metrics.RecordProcess(name, metrics.OutcomeIgnore)
	default:
		metrics.RecordProcess(name, metrics.OutcomeModule)
	}
	return res, err
}

// cacheKey returns the memo name for a transition. Names without a
// configured definition run untransformed and key by name alone.
func (s *session) cacheKey(name string) string {
	if k, ok := s.keys[name]; ok {
		return k
	}
	return name
}

func (s *session) close() {
	st := s.pipe.Stats()
	output.Debug("module cache", "hits", st.Hits, "misses", st.Misses, "shared", st.Shared, "entries", st.Entries)
	s.pipe.Close()
}
