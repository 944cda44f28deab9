package models

import (
	"encoding/json"
	"slices"
)

// Measurement value kinds understood by the pod firmware.
const (
	TypeUint8   = "uint8"
	TypeUint16  = "uint16"
	TypeUint32  = "uint32"
	TypeUint64  = "uint64"
	TypeInt8    = "int8"
	TypeInt16   = "int16"
	TypeInt32   = "int32"
	TypeInt64   = "int64"
	TypeFloat32 = "float32"
	TypeFloat64 = "float64"
	TypeBool    = "bool"
	TypeEnum    = "enum"
)

// MeasurementTypes lists every accepted Measurement.Type value.
var MeasurementTypes = []string{
	TypeUint8, TypeUint16, TypeUint32, TypeUint64,
	TypeInt8, TypeInt16, TypeInt32, TypeInt64,
	TypeFloat32, TypeFloat64,
	TypeBool, TypeEnum,
}

// IsMeasurementType reports whether t is one of MeasurementTypes.
func IsMeasurementType(t string) bool {
	return slices.Contains(MeasurementTypes, t)
}

// Direction selects which side of a threshold pair is addressed.
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

// Level selects the safe or warning bound inside a Limit.
type Level string

const (
	Safe    Level = "safe"
	Warning Level = "warning"
)

// Limit is one side of a threshold: the value at which a reading stops
// being safe, and the value at which it becomes a warning.
type Limit struct {
	Safe    float64 `json:"safe"`
	Warning float64 `json:"warning"`
}

// Thresholds holds the safe/warning limits in both directions.
//
// The backend exchanges thresholds as two ranges; the codec converts:
//
//	safeRange    = [below.safe,    above.safe]
//	warningRange = [below.warning, above.warning]
type Thresholds struct {
	Above Limit `json:"above"`
	Below Limit `json:"below"`
}

// Side returns a pointer to the limit for direction d, or nil for an
// unknown direction.
func (t *Thresholds) Side(d Direction) *Limit {
	switch d {
	case Above:
		return &t.Above
	case Below:
		return &t.Below
	}
	return nil
}

// Measurement describes one sensor or computed value reported by a board.
type Measurement struct {
	// ID is unique within the owning board
	ID string `json:"id" validate:"required"`

	// Name is the human readable label
	Name string `json:"name" validate:"required"`

	// Type is one of MeasurementTypes
	Type string `json:"type" validate:"required,measurement_type"`

	// PodUnits is the unit of the raw value sent by the board
	PodUnits string `json:"podUnits"`

	// DisplayUnits is the unit shown to operators
	DisplayUnits string `json:"displayUnits"`

	// EnumValues labels the values of an enum measurement, in order
	EnumValues []string `json:"enumValues"`

	// Thresholds are the safe/warning limits, nil when not monitored
	Thresholds *Thresholds `json:"-"`

	// OutOfRange bounds the physically valid values as [min, max]
	OutOfRange *[2]float64 `json:"out_of_range"`
}

// Clone returns a deep copy of m.
func (m Measurement) Clone() Measurement {
	out := m
	out.EnumValues = slices.Clone(m.EnumValues)
	if m.Thresholds != nil {
		t := *m.Thresholds
		out.Thresholds = &t
	}
	if m.OutOfRange != nil {
		r := *m.OutOfRange
		out.OutOfRange = &r
	}
	return out
}

// wireMeasurement is the JSON shape exchanged with the backend. Above and
// Below are only read; encoding always emits the range form.
type wireMeasurement struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	PodUnits     string      `json:"podUnits,omitempty"`
	DisplayUnits string      `json:"displayUnits,omitempty"`
	EnumValues   []string    `json:"enumValues,omitempty"`
	SafeRange    *[2]float64 `json:"safeRange,omitempty"`
	WarningRange *[2]float64 `json:"warningRange,omitempty"`
	Above        *Limit      `json:"above,omitempty"`
	Below        *Limit      `json:"below,omitempty"`
	OutOfRange   *[2]float64 `json:"out_of_range,omitempty"`
}

// MarshalJSON encodes the measurement in the backend's range form.
func (m Measurement) MarshalJSON() ([]byte, error) {
	w := wireMeasurement{
		ID:           m.ID,
		Name:         m.Name,
		Type:         m.Type,
		PodUnits:     m.PodUnits,
		DisplayUnits: m.DisplayUnits,
		EnumValues:   m.EnumValues,
		OutOfRange:   m.OutOfRange,
	}
	if t := m.Thresholds; t != nil {
		w.SafeRange = &[2]float64{t.Below.Safe, t.Above.Safe}
		w.WarningRange = &[2]float64{t.Below.Warning, t.Above.Warning}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts both the above/below and the range threshold forms.
// When both are present the above/below form wins.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	var w wireMeasurement
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*m = Measurement{
		ID:           w.ID,
		Name:         w.Name,
		Type:         w.Type,
		PodUnits:     w.PodUnits,
		DisplayUnits: w.DisplayUnits,
		OutOfRange:   w.OutOfRange,
	}
	if len(w.EnumValues) > 0 {
		m.EnumValues = w.EnumValues
	}

	switch {
	case w.Above != nil || w.Below != nil:
		t := &Thresholds{}
		if w.Above != nil {
			t.Above = *w.Above
		}
		if w.Below != nil {
			t.Below = *w.Below
		}
		m.Thresholds = t
	case w.SafeRange != nil || w.WarningRange != nil:
		t := &Thresholds{}
		if r := w.SafeRange; r != nil {
			t.Below.Safe, t.Above.Safe = r[0], r[1]
		}
		if r := w.WarningRange; r != nil {
			t.Below.Warning, t.Above.Warning = r[0], r[1]
		}
		m.Thresholds = t
	}
	return nil
}
