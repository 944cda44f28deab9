package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// PacketID is the numeric identifier of a packet on the wire.
type PacketID uint32

func (id PacketID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParsePacketID parses a decimal packet id.
func ParsePacketID(s string) (PacketID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid packet id %q: %w", s, err)
	}
	return PacketID(n), nil
}

// Packet describes a message layout. Variables reference Measurement.ID
// values on the same board; they are references, not copies.
type Packet struct {
	// ID is nil for packets that have not been assigned an id yet
	ID *PacketID `json:"id"`

	Name      string   `json:"name" validate:"required"`
	Type      string   `json:"type"`
	Variables []string `json:"variables"`
}

// Clone returns a deep copy of p.
func (p Packet) Clone() Packet {
	out := p
	if p.ID != nil {
		id := *p.ID
		out.ID = &id
	}
	out.Variables = slices.Clone(p.Variables)
	return out
}

// HasID reports whether p carries the given id.
func (p Packet) HasID(id PacketID) bool {
	return p.ID != nil && *p.ID == id
}

type wirePacket struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

// MarshalJSON encodes variables as a plain list of measurement ids.
func (p Packet) MarshalJSON() ([]byte, error) {
	vars := p.Variables
	if vars == nil {
		vars = []string{}
	}
	out := struct {
		ID        *PacketID `json:"id,omitempty"`
		Type      string    `json:"type"`
		Name      string    `json:"name"`
		Variables []string  `json:"variables"`
	}{p.ID, p.Type, p.Name, vars}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a numeric or quoted id (empty meaning unassigned),
// and variables either as strings or as the legacy single-key objects.
// A packet wrapped in a single-key object ({"packet_id": {...}}) is
// unwrapped; a numeric wrapper key supplies the id when the body has none.
func (p *Packet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if !hasPacketField(fields) {
		if len(fields) != 1 {
			return fmt.Errorf("packet: expected id, name, type or variables")
		}
		for key, body := range fields {
			return p.unwrap(key, body)
		}
	}

	var w wirePacket
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Packet{Name: w.Name, Type: w.Type}

	id, err := decodePacketID(w.ID)
	if err != nil {
		return err
	}
	p.ID = id

	vars, err := decodeVariables(w.Variables)
	if err != nil {
		return fmt.Errorf("packet %q: %w", w.Name, err)
	}
	p.Variables = vars
	return nil
}

func hasPacketField(fields map[string]json.RawMessage) bool {
	for _, k := range []string{"id", "name", "type", "variables"} {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func (p *Packet) unwrap(key string, body json.RawMessage) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return fmt.Errorf("packet %q: expected an object", key)
	}
	var inner Packet
	if err := json.Unmarshal(body, &inner); err != nil {
		return err
	}
	if inner.ID == nil && key != "packet_id" {
		id, err := ParsePacketID(key)
		if err != nil {
			return fmt.Errorf("packet wrapper %q: %w", key, err)
		}
		inner.ID = &id
	}
	*p = inner
	return nil
}

func decodePacketID(raw json.RawMessage) (*PacketID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		id, err := ParsePacketID(s)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}

	var n uint32
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("invalid packet id %s: %w", raw, err)
	}
	id := PacketID(n)
	return &id, nil
}

func decodeVariables(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("variables must be a list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	vars := make([]string, 0, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			vars = append(vars, s)
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || len(obj) != 1 {
			return nil, fmt.Errorf("variables[%d]: expected a measurement id", i)
		}
		for k := range obj {
			vars = append(vars, k)
		}
	}
	return vars, nil
}
