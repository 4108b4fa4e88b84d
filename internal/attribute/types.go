package attribute

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DataType is the declared type of an attribute value.
type DataType int

const (
	// TypeString is the default when no data_type is configured.
	TypeString DataType = iota
	TypeBoolean
	TypeInteger
	TypeDouble
)

// Configuration names for data types. DevFloat is accepted as an alias of
// DevDouble and resolves to TypeDouble.
const (
	DevBoolean = "DevBoolean"
	DevLong    = "DevLong"
	DevDouble  = "DevDouble"
	DevFloat   = "DevFloat"
	DevString  = "DevString"
)

// ParseDataType resolves a configured data_type name.
// An empty name resolves to TypeString.
func ParseDataType(name string) (DataType, bool) {
	switch name {
	case DevBoolean:
		return TypeBoolean, true
	case DevLong:
		return TypeInteger, true
	case DevDouble, DevFloat:
		return TypeDouble, true
	case DevString, "":
		return TypeString, true
	default:
		return TypeString, false
	}
}

// String returns the configuration name of the data type.
func (d DataType) String() string {
	switch d {
	case TypeBoolean:
		return DevBoolean
	case TypeInteger:
		return DevLong
	case TypeDouble:
		return DevDouble
	case TypeString:
		return DevString
	default:
		return fmt.Sprintf("DataType(%d)", int(d))
	}
}

// MarshalText implements encoding.TextMarshaler
func (d DataType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *DataType) UnmarshalText(text []byte) error {
	dt, ok := ParseDataType(string(text))
	if !ok {
		return fmt.Errorf("unknown data type %q", string(text))
	}
	*d = dt
	return nil
}

// AccessMode defines which operations the transport allows on an attribute.
type AccessMode int

const (
	// ReadWrite is the default when no write_type is configured.
	ReadWrite AccessMode = iota
	ReadOnly
	WriteOnly
	ReadWithWrite
)

// Configuration names for access modes.
const (
	WriteTypeRead          = "READ"
	WriteTypeWrite         = "WRITE"
	WriteTypeReadWrite     = "READ_WRITE"
	WriteTypeReadWithWrite = "READ_WITH_WRITE"
)

// ParseAccessMode resolves a configured write_type name.
// An empty name resolves to ReadWrite.
func ParseAccessMode(name string) (AccessMode, bool) {
	switch name {
	case WriteTypeRead:
		return ReadOnly, true
	case WriteTypeWrite:
		return WriteOnly, true
	case WriteTypeReadWrite, "":
		return ReadWrite, true
	case WriteTypeReadWithWrite:
		return ReadWithWrite, true
	default:
		return ReadWrite, false
	}
}

// CanRead reports whether the transport may serve reads.
func (a AccessMode) CanRead() bool { return a != WriteOnly }

// CanWrite reports whether the transport may accept writes.
func (a AccessMode) CanWrite() bool { return a != ReadOnly }

// String returns the configuration name of the access mode.
func (a AccessMode) String() string {
	switch a {
	case ReadOnly:
		return WriteTypeRead
	case WriteOnly:
		return WriteTypeWrite
	case ReadWrite:
		return WriteTypeReadWrite
	case ReadWithWrite:
		return WriteTypeReadWithWrite
	default:
		return fmt.Sprintf("AccessMode(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler
func (a AccessMode) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *AccessMode) UnmarshalText(text []byte) error {
	mode, ok := ParseAccessMode(string(text))
	if !ok {
		return fmt.Errorf("unknown access mode %q", string(text))
	}
	*a = mode
	return nil
}

// Declaration is a configuration record describing one attribute before it
// is registered. All fields are kept as configured text; resolution and
// validation happen in Registry.Register.
type Declaration struct {
	Name       string `json:"name" yaml:"name"`
	DataType   string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	MinValue   string `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue   string `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	Unit       string `json:"unit,omitempty" yaml:"unit,omitempty"`
	WriteType  string `json:"write_type,omitempty" yaml:"write_type,omitempty"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Modifier   string `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	MinAlarm   string `json:"min_alarm,omitempty" yaml:"min_alarm,omitempty"`
	MaxAlarm   string `json:"max_alarm,omitempty" yaml:"max_alarm,omitempty"`
	MinWarning string `json:"min_warning,omitempty" yaml:"min_warning,omitempty"`
	MaxWarning string `json:"max_warning,omitempty" yaml:"max_warning,omitempty"`
}

// Bounds is the advisory min/max range handed to the transport.
type Bounds struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Alarms holds the optional alarm and warning thresholds.
type Alarms struct {
	MinAlarm   string `json:"min_alarm,omitempty"`
	MaxAlarm   string `json:"max_alarm,omitempty"`
	MinWarning string `json:"min_warning,omitempty"`
	MaxWarning string `json:"max_warning,omitempty"`
}

// IsZero reports whether no threshold is set.
func (a Alarms) IsZero() bool {
	return a == Alarms{}
}

// Descriptor is the registered metadata of an attribute: everything the
// transport needs to expose it, minus the value.
type Descriptor struct {
	Name     string     `json:"name"`
	Type     DataType   `json:"data_type"`
	Access   AccessMode `json:"write_type"`
	Bounds   *Bounds    `json:"bounds,omitempty"`
	Alarms   Alarms     `json:"alarms"`
	Unit     string     `json:"unit,omitempty"`
	Label    string     `json:"label,omitempty"`
	Modifier string     `json:"modifier,omitempty"`
}

func (d Descriptor) clone() Descriptor {
	if d.Bounds != nil {
		b := *d.Bounds
		d.Bounds = &b
	}
	return d
}

// Value is the result of coercing a raw value to its declared type.
type Value struct {
	typ DataType
	b   bool
	i   int64
	f   float64
	s   string
}

// Type returns the declared type the value was coerced to.
func (v Value) Type() DataType { return v.typ }

// Bool returns the value of a Boolean attribute.
func (v Value) Bool() bool { return v.b }

// Int returns the value of an Integer attribute.
func (v Value) Int() int64 { return v.i }

// Float returns the value of a Double attribute.
func (v Value) Float() float64 { return v.f }

// Text returns the value of a String attribute.
func (v Value) Text() string { return v.s }

// Interface returns the value as a bool, int64, float64 or string.
func (v Value) Interface() any {
	switch v.typ {
	case TypeBoolean:
		return v.b
	case TypeInteger:
		return v.i
	case TypeDouble:
		return v.f
	default:
		return v.s
	}
}

// String formats the value for display.
func (v Value) String() string {
	return fmt.Sprint(v.Interface())
}

// MarshalJSON encodes the typed value as a plain JSON scalar. Non-finite
// doubles have no JSON number form and are encoded as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.typ == TypeDouble && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return json.Marshal(strconv.FormatFloat(v.f, 'g', -1, 64))
	}
	return json.Marshal(v.Interface())
}
