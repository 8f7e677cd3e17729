// Package scanlog provides recording and replay of synchronized scan
// packages. Logs are gob streams behind gzip, so recorded sensor sessions
// can be replayed offline through the odometry pipeline.
package scanlog

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/odometry.report/internal/imu"
)

// FileExtension is the extension for scan log files.
const FileExtension = ".scanlog"

// Writer appends scan packages to a log file.
type Writer struct {
	f      *os.File
	gz     *gzip.Writer
	enc    *gob.Encoder
	count  int
	closed bool
}

// NewWriter creates a log file at path, truncating any existing file.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan log: %w", err)
	}
	gz := gzip.NewWriter(f)
	return &Writer{
		f:   f,
		gz:  gz,
		enc: gob.NewEncoder(gz),
	}, nil
}

// Write appends one scan package to the log.
func (w *Writer) Write(pkg *imu.ScanPackage) error {
	if w.closed {
		return fmt.Errorf("scan log writer is closed")
	}
	if err := w.enc.Encode(pkg); err != nil {
		return fmt.Errorf("failed to encode scan package: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of packages written.
func (w *Writer) Count() int { return w.count }

// Close flushes and closes the log.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.gz.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Reader replays scan packages from a log file.
type Reader struct {
	f   *os.File
	gz  *gzip.Reader
	dec *gob.Decoder
}

// NewReader opens a log file for replay.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan log: %w", err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return &Reader{
		f:   f,
		gz:  gz,
		dec: gob.NewDecoder(gz),
	}, nil
}

// Next returns the next scan package, or io.EOF when the log is exhausted.
func (r *Reader) Next() (*imu.ScanPackage, error) {
	var pkg imu.ScanPackage
	if err := r.dec.Decode(&pkg); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode scan package: %w", err)
	}
	return &pkg, nil
}

// Close closes the log.
func (r *Reader) Close() error {
	if err := r.gz.Close(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}
