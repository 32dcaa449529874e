// Package csvio writes canonical.Record rows to the harvester's fixed
// 57-field CSV output: a thin encoding/csv wrapper, nothing more.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/watchdna/storeharvester/pkg/canonical"
)

// Writer emits canonical.Record rows in canonical.Fields order,
// forcing LF line endings regardless of host OS.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter wraps w. UseCRLF is left false so every row ends in a
// bare \n.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteHeader writes the fixed header row. Called automatically by
// the first WriteRecord if not called explicitly, so an empty result
// set still produces a header-only file.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	return w.w.Write(canonical.Fields)
}

// WriteRecord writes one row, in canonical.Fields order. Every field
// is always emitted, empty string when the record has nothing for it.
func (w *Writer) WriteRecord(rec canonical.Record) error {
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	row := make([]string, len(canonical.Fields))
	for i, field := range canonical.Fields {
		row[i] = rec[field]
	}
	return w.w.Write(row)
}

// WriteAll writes every record in order, then flushes.
func (w *Writer) WriteAll(records []canonical.Record) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.w.Error()
}

// Flush flushes any buffered data to the underlying writer.
func (w *Writer) Flush() {
	w.w.Flush()
}
