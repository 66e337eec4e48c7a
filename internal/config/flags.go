package config

import (
	"codeberg.org/mutker/thermlog/internal/errors"
	"github.com/spf13/pflag"
)

// Flags are the resolved switches. They are resolved once at startup and
// passed on by value.
type Flags struct {
	Log      bool
	Console  bool
	CSV      bool
	SQLite   bool
	Textfile bool
}

// AnyExport reports whether at least one export sink is enabled.
func (f Flags) AnyExport() bool {
	return f.CSV || f.SQLite || f.Textfile
}

// Overrides carries the switches a caller set explicitly. A nil field falls
// back to the store.
type Overrides struct {
	Log      *bool
	Console  *bool
	CSV      *bool
	SQLite   *bool
	Textfile *bool
}

// Bool returns a pointer to v, for building Overrides.
func Bool(v bool) *bool {
	return &v
}

// switchFlags maps command line flags onto store keys.
var switchFlags = []struct {
	flag  string
	key   string
	usage string
}{
	{"log", KeyLog, "Write a log file (persisted)"},
	{"console", KeyConsole, "Log to the console (persisted)"},
	{"csv", KeyCSV, "Export snapshots to CSV (persisted)"},
	{"sqlite", KeySQLite, "Mirror snapshots into SQLite (persisted)"},
	{"textfile", KeyTextfile, "Write a Prometheus textfile (persisted)"},
}

// BindSwitches registers the persisted switches on flags. Their defaults are
// never used: an unset flag means "take the stored value".
func BindSwitches(flags *pflag.FlagSet) {
	for _, sw := range switchFlags {
		flags.Bool(sw.flag, false, sw.usage)
	}
}

// OverridesFromFlags returns the switches that were set on the command line.
func OverridesFromFlags(flags *pflag.FlagSet) (Overrides, error) {
	var o Overrides
	targets := map[string]**bool{
		"log":      &o.Log,
		"console":  &o.Console,
		"csv":      &o.CSV,
		"sqlite":   &o.SQLite,
		"textfile": &o.Textfile,
	}

	for _, sw := range switchFlags {
		if flags.Lookup(sw.flag) == nil || !flags.Changed(sw.flag) {
			continue
		}
		v, err := flags.GetBool(sw.flag)
		if err != nil {
			return Overrides{}, errors.New().Wrap(ErrInvalidBool, err)
		}
		*targets[sw.flag] = Bool(v)
	}

	return o, nil
}

// Resolve combines overrides with the store. Every override is written back
// so it becomes the default of the next run.
func Resolve(store *Store, o Overrides) (Flags, error) {
	var f Flags
	fields := []struct {
		key      string
		override *bool
		target   *bool
	}{
		{KeyLog, o.Log, &f.Log},
		{KeyConsole, o.Console, &f.Console},
		{KeyCSV, o.CSV, &f.CSV},
		{KeySQLite, o.SQLite, &f.SQLite},
		{KeyTextfile, o.Textfile, &f.Textfile},
	}

	dirty := false
	for _, field := range fields {
		if field.override != nil {
			*field.target = *field.override
			store.SetBool(field.key, *field.override)
			dirty = true
			continue
		}

		v, err := store.Bool(field.key)
		if err != nil {
			return Flags{}, err
		}
		*field.target = v
	}

	if dirty {
		if err := store.Save(); err != nil {
			return Flags{}, err
		}
	}

	return f, nil
}
