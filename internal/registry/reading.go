package registry

import (
	"strconv"
	"strings"
)

// Family identifies a probe type, e.g. "DS18B20".
type Family string

// NormalizeFamily trims and upper-cases a family name.
func NormalizeFamily(s string) Family {
	return Family(strings.ToUpper(strings.TrimSpace(s)))
}

// ProbeID identifies one physical probe within its family.
type ProbeID string

// Key is one (family, probe) pair.
type Key struct {
	Family Family
	ID     ProbeID
}

// Column returns the CSV column name for k.
func (k Key) Column() string {
	return string(k.Family) + "_" + string(k.ID)
}

func (k Key) String() string {
	return k.Column()
}

type readingKind uint8

const (
	kindAbsent readingKind = iota
	kindInt
	kindFloat
)

// Reading is the latest value of a probe. The zero value is absent.
type Reading struct {
	kind readingKind
	i    int64
	f    float64
}

// Absent returns a reading carrying no value.
func Absent() Reading {
	return Reading{}
}

// Int returns an integer reading.
func Int(v int64) Reading {
	return Reading{kind: kindInt, i: v}
}

// Float returns a floating point reading.
func Float(v float64) Reading {
	return Reading{kind: kindFloat, f: v}
}

// IsAbsent reports whether r carries no value.
func (r Reading) IsAbsent() bool {
	return r.kind == kindAbsent
}

// Value returns the reading as float64 and whether one is present.
func (r Reading) Value() (float64, bool) {
	switch r.kind {
	case kindInt:
		return float64(r.i), true
	case kindFloat:
		return r.f, true
	default:
		return 0, false
	}
}

// String renders the reading for export: integers in decimal, floats in
// shortest form with at least one fractional digit, absent as "".
func (r Reading) String() string {
	switch r.kind {
	case kindInt:
		return strconv.FormatInt(r.i, 10)
	case kindFloat:
		s := strconv.FormatFloat(r.f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	default:
		return ""
	}
}
