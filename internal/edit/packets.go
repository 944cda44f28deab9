package edit

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"evalgo.org/adjvalet/models"
)

// PacketSelector identifies a packet on a board by id or, for packets
// without an id, by name.
type PacketSelector struct {
	id   *models.PacketID
	name string
}

// ByPacketID selects the packet carrying id.
func ByPacketID(id models.PacketID) PacketSelector {
	return PacketSelector{id: &id}
}

// ByPacketName selects the first packet named name.
func ByPacketName(name string) PacketSelector {
	return PacketSelector{name: name}
}

// PacketRef selects by id when ref is numeric and a packet carries that id,
// and by name otherwise.
func PacketRef(ref string) PacketSelector {
	sel := PacketSelector{name: ref}
	if n, err := strconv.ParseUint(ref, 10, 32); err == nil {
		id := models.PacketID(n)
		sel.id = &id
	}
	return sel
}

func (s PacketSelector) String() string {
	if s.id != nil {
		return "id " + s.id.String()
	}
	return strconv.Quote(s.name)
}

// index returns the position of the selected packet, or -1. Id matches
// take precedence over name matches.
func (s PacketSelector) index(packets []models.Packet) int {
	if s.id != nil {
		if i := slices.IndexFunc(packets, func(p models.Packet) bool { return p.HasID(*s.id) }); i >= 0 {
			return i
		}
	}
	if s.name == "" {
		return -1
	}
	return slices.IndexFunc(packets, func(p models.Packet) bool { return p.Name == s.name })
}

// PacketEdit changes one aspect of a packet copy.
type PacketEdit func(*models.Packet) error

// SetPacketID assigns an id.
func SetPacketID(id models.PacketID) PacketEdit {
	return func(p *models.Packet) error {
		p.ID = &id
		return nil
	}
}

// ClearPacketID removes the id; one is assigned again on save.
func ClearPacketID() PacketEdit {
	return func(p *models.Packet) error {
		p.ID = nil
		return nil
	}
}

// SetPacketName sets the packet label.
func SetPacketName(name string) PacketEdit {
	return func(p *models.Packet) error {
		if blank(name) {
			return invalid("packet name is required")
		}
		p.Name = name
		return nil
	}
}

// SetPacketType sets the free-form packet classification.
func SetPacketType(t string) PacketEdit {
	return func(p *models.Packet) error {
		p.Type = t
		return nil
	}
}

// SetVariables replaces the measurement references.
func SetVariables(ids ...string) PacketEdit {
	return func(p *models.Packet) error {
		if len(ids) == 0 {
			p.Variables = nil
			return nil
		}
		p.Variables = slices.Clone(ids)
		return nil
	}
}

// AddVariable appends a measurement reference if not already present.
func AddVariable(id string) PacketEdit {
	return func(p *models.Packet) error {
		if blank(id) {
			return invalid("variable id is required")
		}
		if !slices.Contains(p.Variables, id) {
			p.Variables = append(slices.Clone(p.Variables), id)
		}
		return nil
	}
}

// RemoveVariable drops a measurement reference.
func RemoveVariable(id string) PacketEdit {
	return func(p *models.Packet) error {
		p.Variables = slices.DeleteFunc(slices.Clone(p.Variables), func(v string) bool { return v == id })
		if len(p.Variables) == 0 {
			p.Variables = nil
		}
		return nil
	}
}

// AddPacket appends a packet to a board. The id may be nil.
func AddPacket(cfg *models.ADJConfig, boardName string, p models.Packet) (*models.ADJConfig, error) {
	if blank(p.Name) {
		return nil, invalid("packet name is required")
	}
	b, err := board(cfg, boardName)
	if err != nil {
		return nil, err
	}
	if p.ID != nil && ByPacketID(*p.ID).index(b.Packets) >= 0 {
		return nil, duplicate("packet id %s already exists on board %q", p.ID, boardName)
	}

	b.Packets = append(slices.Clone(b.Packets), p.Clone())
	return cfg.WithBoard(boardName, b), nil
}

// RemovePacket deletes the selected packet. Missing boards or packets are
// a no-op.
func RemovePacket(cfg *models.ADJConfig, boardName string, sel PacketSelector) *models.ADJConfig {
	b, ok := cfg.Board(boardName)
	if !ok {
		return cfg
	}
	idx := sel.index(b.Packets)
	if idx < 0 {
		return cfg
	}
	b.Packets = slices.Delete(slices.Clone(b.Packets), idx, idx+1)
	return cfg.WithBoard(boardName, b)
}

// UpdatePacket applies edits to a copy of the selected packet.
func UpdatePacket(cfg *models.ADJConfig, boardName string, sel PacketSelector, edits ...PacketEdit) (*models.ADJConfig, error) {
	b, err := board(cfg, boardName)
	if err != nil {
		return nil, err
	}
	idx := sel.index(b.Packets)
	if idx < 0 {
		return nil, notFound("packet %s on board %q", sel, boardName)
	}

	p := b.Packets[idx].Clone()
	for _, edit := range edits {
		if err := edit(&p); err != nil {
			return nil, err
		}
	}
	if p.ID != nil {
		for i, other := range b.Packets {
			if i != idx && other.HasID(*p.ID) {
				return nil, duplicate("packet id %s already exists on board %q", p.ID, boardName)
			}
		}
	}

	b.Packets = slices.Clone(b.Packets)
	b.Packets[idx] = p
	return cfg.WithBoard(boardName, b), nil
}

// AssignPacketIDs gives every packet without an id the next free id,
// counting from the highest id in the whole document. cfg is returned
// unchanged when every packet already has an id. ErrIDsExhausted is
// returned when the ids would run past the largest packet id.
func AssignPacketIDs(cfg *models.ADJConfig) (*models.ADJConfig, error) {
	var next uint64
	missing := 0
	for _, name := range cfg.BoardNames() {
		b, _ := cfg.Board(name)
		for _, p := range b.Packets {
			switch {
			case p.ID == nil:
				missing++
			case uint64(*p.ID) >= next:
				next = uint64(*p.ID) + 1
			}
		}
	}
	if missing == 0 {
		return cfg, nil
	}
	if next+uint64(missing)-1 > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d packets need an id above %d", ErrIDsExhausted, missing, next-1)
	}

	out := cfg
	for _, name := range cfg.BoardNames() {
		b, _ := cfg.Board(name)
		if !slices.ContainsFunc(b.Packets, func(p models.Packet) bool { return p.ID == nil }) {
			continue
		}
		b.Packets = slices.Clone(b.Packets)
		for i := range b.Packets {
			if b.Packets[i].ID == nil {
				id := models.PacketID(next)
				next++
				b.Packets[i].ID = &id
			}
		}
		out = out.WithBoard(name, b)
	}
	return out, nil
}

func checkPacketIDs(ps []models.Packet) error {
	seen := make(map[models.PacketID]bool, len(ps))
	for _, p := range ps {
		if p.ID == nil {
			continue
		}
		if seen[*p.ID] {
			return duplicate("packet id %s defined twice", p.ID)
		}
		seen[*p.ID] = true
	}
	return nil
}
