package output

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// SplitOptions controls per-module file output.
type SplitOptions struct {
	// Fs is the target filesystem. Nil means the OS filesystem.
	Fs afero.Fs

	// OutDir is the directory records are written to.
	OutDir string

	// Format is yaml or json.
	Format Format
}

// WriteSplitRecords writes each record to its own file in opts.OutDir and
// returns the written file names, relative to OutDir, in record order.
// Files are named after the source with its separators flattened.
func WriteSplitRecords(records []ModuleRecord, opts SplitOptions) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if opts.Format == FormatTable {
		return nil, fmt.Errorf("split output does not support format %q", opts.Format)
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if err := fs.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	usedNames := make(map[string]int)
	written := make([]string, 0, len(records))
	for _, rec := range records {
		name := splitFileName(rec, opts.Format, usedNames)
		dest := path.Join(opts.OutDir, name)

		var buf bytes.Buffer
		if err := WriteRecords(&buf, opts.Format, []ModuleRecord{rec}); err != nil {
			return written, fmt.Errorf("encoding %s: %w", rec.Source, err)
		}
		if err := afero.WriteFile(fs, dest, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", dest, err)
		}

		Debug("wrote module file", "source", rec.Source, "file", dest)
		written = append(written, name)
	}
	return written, nil
}

// splitFileName builds "<result>-<sanitized source>.<ext>", suffixing
// a counter on collisions.
func splitFileName(rec ModuleRecord, format Format, usedNames map[string]int) string {
	ext := ".yaml"
	if format == FormatJSON {
		ext = ".json"
	}

	base := rec.Result + "-" + sanitizeName(strings.TrimPrefix(rec.Source, "/"))
	count, exists := usedNames[base]
	usedNames[base] = count + 1
	if exists {
		return fmt.Sprintf("%s-%d%s", base, count+1, ext)
	}
	return base + ext
}

var nameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "-",
	"|", "-",
	"\"", "",
	"<", "",
	">", "",
)

// sanitizeName makes a name safe for use in filenames.
func sanitizeName(name string) string {
	return nameReplacer.Replace(name)
}
