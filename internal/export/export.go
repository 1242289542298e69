// Package export writes downloaded lead exports to disk. Files are staged in
// a temp file next to the destination and renamed into place, so a failed
// or cancelled export never leaves a partial file behind.
package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Format is an output file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// FileName returns base with the format's extension.
func FileName(base string, f Format) string {
	return strings.TrimSuffix(base, filepath.Ext(base)) + f.Ext()
}

// staged is a temp file that is either committed by rename or removed.
// release runs at most once whatever the path taken.
type staged struct {
	f    *os.File
	once sync.Once
	kept bool
}

func stage(dir string) (*staged, error) {
	f, err := os.CreateTemp(dir, ".leadwatcher-export-*")
	if err != nil {
		return nil, eris.Wrap(err, "export: create temp file")
	}
	return &staged{f: f}, nil
}

func (s *staged) path() string { return s.f.Name() }

// commit closes the temp file and renames it to dest.
func (s *staged) commit(dest string) error {
	if err := s.f.Close(); err != nil {
		return eris.Wrap(err, "export: close temp file")
	}
	if err := os.Rename(s.f.Name(), dest); err != nil {
		return eris.Wrapf(err, "export: rename to %s", dest)
	}
	s.kept = true
	return nil
}

// release closes and removes the temp file unless it was committed.
func (s *staged) release() {
	s.once.Do(func() {
		_ = s.f.Close()
		if !s.kept {
			if err := os.Remove(s.f.Name()); err != nil && !os.IsNotExist(err) {
				zap.L().Warn("export: remove temp file", zap.String("path", s.f.Name()), zap.Error(err))
			}
		}
	})
}

// Save writes src to dest in the given format. CSV input is copied as-is;
// for XLSX it is converted to a single-sheet workbook. It returns the
// number of data rows for XLSX and the byte count for CSV.
func Save(ctx context.Context, src io.Reader, dest string, format Format) (int64, error) {
	if dest == "" {
		return 0, eris.New("export: destination is required")
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "export: create %s", dir)
	}

	tmp, err := stage(dir)
	if err != nil {
		return 0, err
	}
	defer tmp.release()

	var n int64
	switch format {
	case CSV, "":
		n, err = io.Copy(tmp.f, ctxReader{ctx: ctx, r: src})
		if err != nil {
			return 0, eris.Wrap(err, "export: write csv")
		}
	case XLSX:
		n, err = writeXLSX(ctx, src, tmp.f)
		if err != nil {
			return 0, err
		}
	default:
		return 0, eris.Errorf("export: unknown format %q", format)
	}

	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "export: cancelled")
	}
	if err := tmp.commit(dest); err != nil {
		return 0, err
	}
	return n, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
