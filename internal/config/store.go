package config

import (
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/thermlog/internal/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const defaultDirPerm = 0o755

// Persisted switches, as "section.key".
const (
	KeyLog      = "general.log"
	KeyConsole  = "general.console"
	KeyCSV      = "exports.csv"
	KeySQLite   = "exports.sqlite"
	KeyTextfile = "exports.textfile"
)

// Store persists the collector's switches in an INI file. It is read once at
// startup and rewritten when a caller overrides a switch; it is not safe for
// concurrent use.
type Store struct {
	v    *viper.Viper
	path string
}

// OpenStore reads path. A missing file yields the defaults and is created on
// the first write.
func OpenStore(path string) (*Store, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	v.SetDefault(KeyLog, false)
	v.SetDefault(KeyConsole, true)
	v.SetDefault(KeyCSV, false)
	v.SetDefault(KeySQLite, false)
	v.SetDefault(KeyTextfile, false)

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, errFactory.WithData(ErrReadConfig, struct {
			Path  string
			Error string
		}{
			Path:  path,
			Error: err.Error(),
		})
	}

	return &Store{v: v, path: path}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Bool returns the switch stored under key. Values that do not parse as a
// boolean are an error, not false.
func (s *Store) Bool(key string) (bool, error) {
	raw := s.v.Get(key)
	if str, ok := raw.(string); ok {
		// ConfigParser also accepts yes/no and on/off.
		switch strings.ToLower(strings.TrimSpace(str)) {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		}
	}

	b, err := cast.ToBoolE(raw)
	if err != nil {
		return false, errors.New().WithData(ErrInvalidBool, struct {
			Key   string
			Value any
		}{
			Key:   key,
			Value: raw,
		})
	}

	return b, nil
}

// SetBool stores value under key. Call Save to persist it.
func (s *Store) SetBool(key string, value bool) {
	s.v.Set(key, value)
}

// Save writes the store back to its file. The whole file is regenerated from
// the parsed values: comments and the original key order are lost, keys come
// back lower-cased, and the default switches are written out alongside the
// ones that were set.
func (s *Store) Save() error {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(s.path), defaultDirPerm); err != nil {
		return errFactory.Wrap(ErrWriteConfig, err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return errFactory.WithData(ErrWriteConfig, struct {
			Path  string
			Error string
		}{
			Path:  s.path,
			Error: err.Error(),
		})
	}

	return nil
}
