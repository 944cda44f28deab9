package models

import (
	"encoding/json"
	"path"
	"slices"
)

// BoardInfo is the definition of one hardware board.
type BoardInfo struct {
	// BoardID is unique across all boards of an ADJ
	BoardID uint32 `json:"board_id"`

	// BoardIP is the board's dotted-quad IPv4 address
	BoardIP string `json:"board_ip" validate:"required,ipv4"`

	Measurements []Measurement `json:"measurements" validate:"dive"`
	Packets      []Packet      `json:"packets" validate:"dive"`
}

// Clone returns a copy of b with its own measurement and packet slices.
// Elements are copied by value; nested pointers are shared.
func (b BoardInfo) Clone() BoardInfo {
	out := b
	out.Measurements = slices.Clone(b.Measurements)
	out.Packets = slices.Clone(b.Packets)
	return out
}

// Measurement returns the index of the measurement with the given id, or -1.
func (b BoardInfo) Measurement(id string) int {
	return slices.IndexFunc(b.Measurements, func(m Measurement) bool {
		return m.ID == id
	})
}

// HasMeasurement reports whether the board defines measurement id.
func (b BoardInfo) HasMeasurement(id string) bool {
	return b.Measurement(id) >= 0
}

// MarshalJSON always emits measurements and packets as lists.
func (b BoardInfo) MarshalJSON() ([]byte, error) {
	type alias BoardInfo
	out := alias(b)
	if out.Measurements == nil {
		out.Measurements = []Measurement{}
	}
	if out.Packets == nil {
		out.Packets = []Packet{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a board and normalizes empty lists to nil.
func (b *BoardInfo) UnmarshalJSON(data []byte) error {
	type alias BoardInfo
	var in alias
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Measurements) == 0 {
		in.Measurements = nil
	}
	if len(in.Packets) == 0 {
		in.Packets = nil
	}
	*b = BoardInfo(in)
	return nil
}

// BoardPath is the manifest path used for a board named name.
func BoardPath(name string) string {
	return path.Join("boards", name, name+".json")
}
