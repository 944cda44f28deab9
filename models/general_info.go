package models

import (
	"encoding/json"
	"maps"
)

// Well-known general info sections. Other sections are allowed.
const (
	SectionPorts      = "ports"
	SectionAddresses  = "addresses"
	SectionUnits      = "units"
	SectionMessageIDs = "message_ids"
)

// Section maps keys to scalar values (string or number).
type Section map[string]any

// GeneralInfo holds the global, board independent sections of an ADJ.
type GeneralInfo map[string]Section

// Clone copies the section map; the sections themselves are shared.
func (g GeneralInfo) Clone() GeneralInfo {
	if g == nil {
		return GeneralInfo{}
	}
	return maps.Clone(g)
}

// IsScalar reports whether v may be stored as a general info value.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, json.Number,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
