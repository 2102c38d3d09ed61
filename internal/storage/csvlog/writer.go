package csvlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/metrics"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

var ErrColumnMismatch = errors.New("column count does not match header")

// Writer appends session rows to a CSV file. Each row is encoded up front and
// written with a single O_APPEND write, so concurrent appenders never
// interleave partial rows.
type Writer struct {
	path    string
	mu      sync.Mutex
	metrics *metrics.Metrics
}

func NewWriter(path string, m *metrics.Metrics) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	logger.Info("CSV log initialized", zap.String("path", path))

	return &Writer{path: path, metrics: m}, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Append(row models.LogRow) error {
	return w.AppendRecord(row.Columns())
}

// AppendRecord writes one raw record, preceded by the header when the file
// is missing or empty. A file that still carries the header without the
// session_id column gets the record in that shorter form; any other header
// is rejected without writing.
func (w *Writer) AppendRecord(record []string) error {
	if len(record) != len(models.Header) {
		return fmt.Errorf("%w: got %d, want %d", ErrColumnMismatch, len(record), len(models.Header))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	withHeader := info.Size() == 0

	if !withHeader {
		header, err := csv.NewReader(io.NewSectionReader(f, 0, info.Size())).Read()
		if err != nil {
			return fmt.Errorf("failed to read log header: %w", err)
		}
		switch {
		case slices.Equal(header, models.Header):
		case slices.Equal(header, models.Header[1:]):
			record = record[1:]
		default:
			return fmt.Errorf("%w: existing header has %d columns", ErrColumnMismatch, len(header))
		}
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if withHeader {
		if err := cw.Write(models.Header); err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	w.metrics.RowAppended()
	logger.Debug("Session row appended",
		zap.String("path", w.path),
		zap.Bool("with_header", withHeader),
		zap.Int("columns", len(record)),
	)
	return nil
}
