package csvexport

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingWriter fails the first n writes and forwards the rest.
type failingWriter struct {
	w io.Writer
	n int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.n > 0 {
		f.n--
		return 0, syscall.EIO
	}

	return f.w.Write(p)
}

func TestAppendRecoversAfterWriteFailure(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddFamily("DS18B20", []registry.ProbeID{"28-000001"}))
	require.NoError(t, reg.Set("DS18B20", "28-000001", registry.Float(21.5)))

	exp := New(WithProcessName("thermlog"), WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	require.NoError(t, exp.Initialize(filepath.Join(t.TempDir(), "out")+string(filepath.Separator), NewSchema(reg.Keys())))
	defer exp.Close()

	require.NoError(t, exp.Append(reg.Snapshot()))

	exp.out = &failingWriter{w: exp.file, n: 2}
	for i := 0; i < 2; i++ {
		err := exp.Append(reg.Snapshot())
		assert.True(t, errors.HasCode(err, ErrWriteFailed))
	}

	require.NoError(t, exp.Append(reg.Snapshot()))
	require.NoError(t, exp.Append(reg.Snapshot()))

	f, err := os.Open(exp.Path())
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = Delimiter
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4, "dropped rows must not reappear")
	for i, row := range records[1:] {
		assert.Equal(t, strconv.Itoa(i), row[0])
		assert.Equal(t, "21.5", row[4])
	}
}
