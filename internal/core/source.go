// Package core holds the value types threaded through the transition pipeline:
// sources, modules, compile-time info, option contexts and process results.
package core

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
)

// Source is an unprocessed build input.
type Source interface {
	// Ident is the stable identity of the source (usually a slash-separated path).
	Ident() string

	// Content returns the raw bytes of the source.
	Content(ctx context.Context) ([]byte, error)
}

// FileSource reads its content from a filesystem path.
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a FileSource backed by fs. A nil fs uses the OS filesystem.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileSource{fs: fs, path: path}
}

// Ident returns the file path.
func (s *FileSource) Ident() string {
	return s.path
}

// Fs returns the filesystem the source reads from.
func (s *FileSource) Fs() afero.Fs {
	return s.fs
}

// Content reads the file.
func (s *FileSource) Content(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return data, nil
}

// VirtualSource is an in-memory source.
type VirtualSource struct {
	ident string
	data  []byte
}

// NewVirtualSource creates a source with fixed content. The data is copied.
func NewVirtualSource(ident string, data []byte) *VirtualSource {
	return &VirtualSource{ident: ident, data: append([]byte(nil), data...)}
}

// Ident returns the source identity.
func (s *VirtualSource) Ident() string {
	return s.ident
}

// Content returns a copy of the source bytes.
func (s *VirtualSource) Content(_ context.Context) ([]byte, error) {
	return append([]byte(nil), s.data...), nil
}

// WrappedSource surrounds an inner source's content with fixed fragments.
// The identity is unchanged so the wrapped source resolves like the original.
type WrappedSource struct {
	Inner  Source
	Prefix []byte
	Suffix []byte
}

// Ident returns the inner source's identity.
func (s *WrappedSource) Ident() string {
	return s.Inner.Ident()
}

// Content returns prefix + inner content + suffix.
func (s *WrappedSource) Content(ctx context.Context) ([]byte, error) {
	inner, err := s.Inner.Content(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(s.Prefix)+len(inner)+len(s.Suffix))
	out = append(out, s.Prefix...)
	out = append(out, inner...)
	out = append(out, s.Suffix...)
	return out, nil
}
