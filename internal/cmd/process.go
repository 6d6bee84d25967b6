package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opmodel/modpipe/internal/metrics"
	"github.com/opmodel/modpipe/internal/output"
)

type processOptions struct {
	transition   string
	reference    string
	output       string
	allowMissing bool
	metrics      bool
	outDir       string
	jobs         int
	timeout      time.Duration
}

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Run sources through the pipeline",
		Long: `Run each source file through the pipeline and print the resulting modules.

With --transition the named transition from the config file is applied:
its hooks rewrite the source and the context before loading, and may
post-process the loaded module. Sources matched by ignore globs or
externals are reported as ignored.

Examples:
  # Load a module with the base context
  modpipe process src/page.cue

  # Apply the "client" transition
  modpipe process src/page.cue --transition client

  # Summarize several sources as a table
  modpipe process src/*.cue -o table

  # Write one file per source
  modpipe process src/*.cue --transition edge --out-dir ./out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.transition, "transition", "t", "",
		"Name of the configured transition to apply")
	cmd.Flags().StringVar(&opts.reference, "reference", "static",
		"Reference type passed to the loader: entry, static, dynamic, internal")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "yaml",
		"Output format: yaml, json, table")
	cmd.Flags().BoolVar(&opts.allowMissing, "allow-missing", false,
		"Process without a transition when --transition is not configured")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false,
		"Print pipeline metrics to stderr in Prometheus text format")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "",
		"Write one file per source into this directory")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(),
		"Number of sources processed concurrently")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0,
		"Abort sources still running after this long (0 means no limit)")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string, opts processOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	format, valid := output.ParseFormat(opts.output)
	if !valid {
		return &ExitError{
			Code: ExitGeneralError,
			Err:  fmt.Errorf("invalid output format %q (valid: %v)", opts.output, output.ValidFormats()),
		}
	}
	if opts.outDir != "" && format == output.FormatTable {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("--out-dir requires yaml or json output")}
	}

	s, err := newSession(opts.reference)
	if err != nil {
		return err
	}
	defer s.close()

	t, err := s.selectTransition(opts.transition, opts.allowMissing)
	if err != nil {
		printError("selecting transition", err)
		return exitErrorFor(err, true)
	}

	output.Debug("processing sources",
		"count", len(args),
		"transition", opts.transition,
		"layer", s.ac.Layer(),
		"reference", s.ref,
	)

	records := make([]output.ModuleRecord, len(args))
	errs := make([]error, len(args))

	g, gctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	work := func() error {
		for i, path := range args {
			g.Go(func() error {
				res, err := s.run(gctx, opts.transition, t, path)
				records[i] = output.NewModuleRecord(path, opts.transition, res, err)
				errs[i] = err
				return nil
			})
		}
		return g.Wait()
	}
	// the spinner draws on the terminal; skip it when stderr is redirected
	if len(args) > 1 && cmd.ErrOrStderr() == os.Stderr {
		err = output.RunWithSpinner(ctx, work,
			output.WithTitle(fmt.Sprintf("Processing %d sources", len(args))),
			output.WithTimeout(opts.timeout),
		)
	} else {
		err = work()
	}
	if err != nil {
		return &ExitError{Code: ExitGeneralError, Err: err}
	}

	var firstErr error
	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = err
		}
		printError("processing "+args[i], err)
	}

	if opts.outDir != "" {
		if err := writeSplit(cmd, records, opts.outDir, format); err != nil {
			return err
		}
	} else if err := output.WriteRecords(cmd.OutOrStdout(), format, records); err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("writing results: %w", err)}
	}

	if verboseFlag {
		for _, r := range records {
			fmt.Fprintln(cmd.ErrOrStderr(), output.FormatResultLine(r.Source, r.Layer, r.Result))
		}
	}

	if opts.metrics {
		if err := metrics.Gather(cmd.ErrOrStderr()); err != nil {
			output.Warn("gathering metrics", "error", err)
		}
	}

	if failed > 0 {
		return &ExitError{
			Code:    ExitCodeFromError(firstErr),
			Err:     fmt.Errorf("%d of %d sources failed", failed, len(args)),
			Printed: false,
		}
	}
	return nil
}

func writeSplit(cmd *cobra.Command, records []output.ModuleRecord, outDir string, format output.Format) error {
	written, err := output.WriteSplitRecords(records, output.SplitOptions{
		OutDir: outDir,
		Format: format,
	})
	if err != nil {
		return &ExitError{Code: ExitGeneralError, Err: fmt.Errorf("writing split results: %w", err)}
	}

	notes := make(map[string]string, len(written))
	for i, name := range written {
		notes[name] = records[i].Result
	}
	fmt.Fprint(cmd.ErrOrStderr(), output.RenderSourceTree(outDir, notes))
	output.Info(output.FormatCheckmark(fmt.Sprintf("wrote %d files to %s", len(written), outDir)))
	return nil
}
