// Package csvexport appends registry snapshots to a ';'-delimited file whose
// column layout is fixed when the file is created.
package csvexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/registry"
)

const (
	Delimiter = ';'

	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644

	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	fileTimeLayout = "15-04-05"
)

// Exporter owns one CSV file per run. Append is meant to be called from a
// single goroutine; the exporter does no locking of its own.
type Exporter struct {
	processName string
	now         func() time.Time
	logger      logger.Logger

	path   string
	schema Schema
	file   *os.File
	// out receives every encoded row in a single Write. It is the file
	// outside of tests.
	out io.Writer
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithProcessName sets the process name used in the file name.
func WithProcessName(name string) Option {
	return func(e *Exporter) {
		e.processName = name
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// WithLogger sets the exporter's logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Exporter) {
		e.logger = log
	}
}

// New returns an uninitialized exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		processName: ProcessName(os.Args[0]),
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ProcessName strips directory and extension from a program path.
func ProcessName(arg0 string) string {
	base := filepath.Base(arg0)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "thermlog"
	}

	return base
}

// FileName returns the run-specific suffix appended to the path prefix.
func FileName(t time.Time, processName string) string {
	return fmt.Sprintf("%s_%s_%s.csv", t.Format(dateLayout), t.Format(fileTimeLayout), processName)
}

// Initialize creates prefix+FileName and writes the header. On failure the
// exporter stays uninitialized and the caller decides whether that is fatal.
func (e *Exporter) Initialize(prefix string, schema Schema) error {
	errFactory := errors.New()

	if e.file != nil {
		return errFactory.WithData(ErrInitFailed, struct {
			Phase string
			Path  string
		}{
			Phase: "already_initialized",
			Path:  e.path,
		})
	}

	path := prefix + FileName(e.now(), e.processName)

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return errFactory.WithData(ErrInitFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  path,
			Error: err.Error(),
		})
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		return errFactory.WithData(ErrInitFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "open_file",
			Path:  path,
			Error: err.Error(),
		})
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errFactory.Wrap(ErrInitFailed, err)
	}

	if info.Size() == 0 {
		if err := writeRow(f, schema.Header()); err != nil {
			f.Close()
			return errFactory.WithData(ErrInitFailed, struct {
				Phase string
				Path  string
				Error string
			}{
				Phase: "write_header",
				Path:  path,
				Error: err.Error(),
			})
		}
	} else if err := checkHeader(path, schema.Header()); err != nil {
		// A file reused across a restart must carry the same layout.
		f.Close()
		return errFactory.WithData(ErrInitFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "header_mismatch",
			Path:  path,
			Error: err.Error(),
		})
	}

	e.path = path
	e.schema = schema
	e.file = f
	e.out = f

	e.logger.Info().
		Str("path", path).
		Int("columns", len(FixedColumns)+schema.Len()).
		Msg("CSV export initialized")

	return nil
}

// Append writes one row for snap. A snapshot that does not match the schema
// is rejected without touching the file.
func (e *Exporter) Append(snap registry.Snapshot) error {
	errFactory := errors.New()

	if e.file == nil {
		return errFactory.New(ErrNotInitialized)
	}

	values, ok := e.schema.flatten(snap)
	if !ok {
		return errFactory.WithData(ErrColumnMismatch, struct {
			Columns int
			Values  int
		}{
			Columns: e.schema.Len(),
			Values:  snap.Len(),
		})
	}

	rows, err := e.Rows()
	if err != nil {
		return err
	}

	now := e.now()
	row := make([]string, 0, len(FixedColumns)+len(values))
	row = append(row,
		strconv.Itoa(rows),
		strconv.FormatInt(now.Unix(), 10),
		now.Format(dateLayout),
		now.Format(timeLayout),
	)
	row = append(row, values...)

	if err := writeRow(e.out, row); err != nil {
		return errFactory.WithData(ErrWriteFailed, struct {
			Path  string
			Row   int
			Error string
		}{
			Path:  e.path,
			Row:   rows,
			Error: err.Error(),
		})
	}

	e.logger.Debug().Int("row", rows).Str("path", e.path).Msg("CSV row appended")

	return nil
}

// Rows counts the data rows currently in the file, header excluded.
func (e *Exporter) Rows() (int, error) {
	if e.path == "" {
		return 0, errors.New().New(ErrNotInitialized)
	}

	n, err := CountRows(e.path)
	if err != nil {
		return 0, errors.New().Wrap(ErrCountRowsFailed, err)
	}

	return n, nil
}

// CountRows counts the data rows of the CSV file at path.
func CountRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = Delimiter
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	records := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		records++
	}

	if records == 0 {
		return 0, nil
	}

	return records - 1, nil
}

// Path returns the file path, empty before Initialize.
func (e *Exporter) Path() string {
	return e.path
}

// Schema returns the schema the file was created with.
func (e *Exporter) Schema() Schema {
	return e.schema
}

// Close closes the file.
func (e *Exporter) Close() error {
	if e.file == nil {
		return nil
	}

	err := e.file.Close()
	e.file = nil
	e.out = nil

	if err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	return nil
}

// writeRow encodes row on its own and hands it to w in one Write, so a
// failed row never lingers in a buffer to be retried by the next call.
func writeRow(w io.Writer, row []string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = Delimiter
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())

	return err
}

// checkHeader compares the first record of the file at path with want.
func checkHeader(path string, want []string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = Delimiter
	r.FieldsPerRecord = -1

	got, err := r.Read()
	if err != nil {
		return err
	}
	if strings.Join(got, string(Delimiter)) != strings.Join(want, string(Delimiter)) {
		return fmt.Errorf("file header %q does not match %q", got, want)
	}

	return nil
}
