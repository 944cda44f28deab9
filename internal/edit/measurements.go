package edit

import (
	"slices"

	"evalgo.org/adjvalet/models"
)

// MeasurementEdit changes one aspect of a measurement copy.
type MeasurementEdit func(*models.Measurement) error

// SetMeasurementID renames a measurement. Packet variables on the same
// board that reference the old id are rewritten.
func SetMeasurementID(id string) MeasurementEdit {
	return func(m *models.Measurement) error {
		if blank(id) {
			return invalid("measurement id is required")
		}
		m.ID = id
		return nil
	}
}

// SetMeasurementName sets the human readable label.
func SetMeasurementName(name string) MeasurementEdit {
	return func(m *models.Measurement) error {
		if blank(name) {
			return invalid("measurement name is required")
		}
		m.Name = name
		return nil
	}
}

// SetMeasurementType sets the value kind. Enum values are kept so that
// switching back to enum does not lose them.
func SetMeasurementType(t string) MeasurementEdit {
	return func(m *models.Measurement) error {
		if !models.IsMeasurementType(t) {
			return invalid("unknown measurement type %q", t)
		}
		m.Type = t
		return nil
	}
}

// SetUnits sets the raw and display units.
func SetUnits(pod, display string) MeasurementEdit {
	return func(m *models.Measurement) error {
		m.PodUnits = pod
		m.DisplayUnits = display
		return nil
	}
}

// SetEnumValues replaces the enum labels.
func SetEnumValues(values ...string) MeasurementEdit {
	return func(m *models.Measurement) error {
		for i, v := range values {
			if blank(v) {
				return invalid("enum value %d is empty", i)
			}
		}
		if len(values) == 0 {
			m.EnumValues = nil
			return nil
		}
		m.EnumValues = slices.Clone(values)
		return nil
	}
}

// SetThreshold sets one bound of the threshold pair, creating the pair
// with zero limits if the measurement had none.
func SetThreshold(dir models.Direction, level models.Level, value float64) MeasurementEdit {
	return func(m *models.Measurement) error {
		t := models.Thresholds{}
		if m.Thresholds != nil {
			t = *m.Thresholds
		}
		side := t.Side(dir)
		if side == nil {
			return invalid("unknown threshold direction %q", dir)
		}
		switch level {
		case models.Safe:
			side.Safe = value
		case models.Warning:
			side.Warning = value
		default:
			return invalid("unknown threshold level %q", level)
		}
		m.Thresholds = &t
		return nil
	}
}

// ClearThresholds removes the threshold pair.
func ClearThresholds() MeasurementEdit {
	return func(m *models.Measurement) error {
		m.Thresholds = nil
		return nil
	}
}

// SetOutOfRange sets the absolute [min, max] bounds.
func SetOutOfRange(min, max float64) MeasurementEdit {
	return func(m *models.Measurement) error {
		if min > max {
			return invalid("out of range min %v is greater than max %v", min, max)
		}
		m.OutOfRange = &[2]float64{min, max}
		return nil
	}
}

// ClearOutOfRange removes the absolute bounds.
func ClearOutOfRange() MeasurementEdit {
	return func(m *models.Measurement) error {
		m.OutOfRange = nil
		return nil
	}
}

// AddMeasurement appends a measurement to a board.
func AddMeasurement(cfg *models.ADJConfig, boardName string, m models.Measurement) (*models.ADJConfig, error) {
	if blank(m.ID) {
		return nil, invalid("measurement id is required")
	}
	if blank(m.Name) {
		return nil, invalid("measurement name is required")
	}
	b, err := board(cfg, boardName)
	if err != nil {
		return nil, err
	}
	if b.HasMeasurement(m.ID) {
		return nil, duplicate("measurement %q already exists on board %q", m.ID, boardName)
	}

	b.Measurements = append(slices.Clone(b.Measurements), m.Clone())
	return cfg.WithBoard(boardName, b), nil
}

// RemoveMeasurement deletes a measurement and drops references to it from
// the board's packets. Missing boards or measurements are a no-op.
func RemoveMeasurement(cfg *models.ADJConfig, boardName, id string) *models.ADJConfig {
	b, ok := cfg.Board(boardName)
	if !ok {
		return cfg
	}
	idx := b.Measurement(id)
	if idx < 0 {
		return cfg
	}

	b.Measurements = slices.Delete(slices.Clone(b.Measurements), idx, idx+1)
	b.Packets = rewriteVariables(b.Packets, id, "")
	return cfg.WithBoard(boardName, b)
}

// UpdateMeasurement applies edits to a copy of measurement id. Nothing
// changes if any edit fails or the result collides with another id.
func UpdateMeasurement(cfg *models.ADJConfig, boardName, id string, edits ...MeasurementEdit) (*models.ADJConfig, error) {
	b, err := board(cfg, boardName)
	if err != nil {
		return nil, err
	}
	idx := b.Measurement(id)
	if idx < 0 {
		return nil, notFound("measurement %q on board %q", id, boardName)
	}

	m := b.Measurements[idx].Clone()
	for _, edit := range edits {
		if err := edit(&m); err != nil {
			return nil, err
		}
	}
	if m.ID != id && b.HasMeasurement(m.ID) {
		return nil, duplicate("measurement %q already exists on board %q", m.ID, boardName)
	}

	b.Measurements = slices.Clone(b.Measurements)
	b.Measurements[idx] = m
	if m.ID != id {
		b.Packets = rewriteVariables(b.Packets, id, m.ID)
	}
	return cfg.WithBoard(boardName, b), nil
}

// rewriteVariables replaces references to from with to in every packet, or
// drops them when to is empty. Untouched packets are shared.
func rewriteVariables(packets []models.Packet, from, to string) []models.Packet {
	var out []models.Packet
	for i, p := range packets {
		if !slices.Contains(p.Variables, from) {
			continue
		}
		if out == nil {
			out = slices.Clone(packets)
		}
		vars := make([]string, 0, len(p.Variables))
		for _, v := range p.Variables {
			switch {
			case v != from:
				vars = append(vars, v)
			case to != "":
				vars = append(vars, to)
			}
		}
		if len(vars) == 0 {
			vars = nil
		}
		p.Variables = vars
		out[i] = p
	}
	if out == nil {
		return packets
	}
	return out
}

func checkMeasurementIDs(ms []models.Measurement) error {
	seen := make(map[string]bool, len(ms))
	for _, m := range ms {
		if blank(m.ID) {
			return invalid("measurement id is required")
		}
		if seen[m.ID] {
			return duplicate("measurement %q defined twice", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}
