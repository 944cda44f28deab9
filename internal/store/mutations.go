package store

import (
	"evalgo.org/adjvalet/internal/edit"
	"evalgo.org/adjvalet/models"
)

// apply runs a reducer against the current document. Reducer errors leave
// the state untouched; a reducer returning the same document is a no-op.
// A failed snapshot write keeps the new document in memory and returns an
// error wrapping ErrNotPersisted.
func (s *Store) apply(fn func(*models.ADJConfig) (*models.ADJConfig, error)) error {
	s.mu.Lock()
	next, err := fn(s.state.Config)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == s.state.Config {
		s.mu.Unlock()
		return nil
	}
	s.state.Config = next
	err = s.persistSnapshot(next)
	s.unlockAndNotify()
	return err
}

// AddBoard adds a board and its manifest entry. The name, the board id and
// the measurement and packet ids inside info must be unique.
func (s *Store) AddBoard(name string, info models.BoardInfo) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.AddBoard(cfg, name, info)
	})
}

// RemoveBoard deletes a board and its manifest entry. Unknown boards are
// a no-op.
func (s *Store) RemoveBoard(name string) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.RemoveBoard(cfg, name), nil
	})
}

// RenameBoard renames a board in place, keeping its position.
func (s *Store) RenameBoard(oldName, newName string) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.RenameBoard(cfg, oldName, newName)
	})
}

// SetBoardID changes a board id. Ids used by another board are rejected
// with edit.ErrDuplicateID.
func (s *Store) SetBoardID(name string, id uint32) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.SetBoardID(cfg, name, id)
	})
}

// SetBoardIP changes a board address. The value is checked on save.
func (s *Store) SetBoardIP(name, ip string) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.SetBoardIP(cfg, name, ip)
	})
}

// AddMeasurement appends a measurement to a board.
func (s *Store) AddMeasurement(board string, m models.Measurement) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.AddMeasurement(cfg, board, m)
	})
}

// RemoveMeasurement also drops references to the measurement from the
// board's packets. Unknown ids are a no-op.
func (s *Store) RemoveMeasurement(board, id string) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.RemoveMeasurement(cfg, board, id), nil
	})
}

// UpdateMeasurement applies edits to one measurement. Changing its id
// rewrites the variables of the board's packets.
func (s *Store) UpdateMeasurement(board, id string, edits ...edit.MeasurementEdit) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.UpdateMeasurement(cfg, board, id, edits...)
	})
}

// AddPacket appends a packet to a board. A nil id is assigned on save.
func (s *Store) AddPacket(board string, p models.Packet) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.AddPacket(cfg, board, p)
	})
}

// RemovePacket deletes the packets sel matches. No match is a no-op.
func (s *Store) RemovePacket(board string, sel edit.PacketSelector) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.RemovePacket(cfg, board, sel), nil
	})
}

// UpdatePacket applies edits to the first packet sel matches.
func (s *Store) UpdatePacket(board string, sel edit.PacketSelector, edits ...edit.PacketEdit) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.UpdatePacket(cfg, board, sel, edits...)
	})
}

// UpdateGeneralInfoField sets a value and optionally renames its key.
func (s *Store) UpdateGeneralInfoField(section, oldKey, newKey string, value any) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.UpdateGeneralInfoField(cfg, section, oldKey, newKey, value)
	})
}

// AddGeneralInfoField inserts a placeholder entry and returns its key.
func (s *Store) AddGeneralInfoField(section string) (string, error) {
	var key string
	err := s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		next, k, err := edit.AddGeneralInfoField(cfg, section)
		key = k
		return next, err
	})
	return key, err
}

// RemoveGeneralInfoField deletes one key. Unknown keys are a no-op.
func (s *Store) RemoveGeneralInfoField(section, key string) error {
	return s.apply(func(cfg *models.ADJConfig) (*models.ADJConfig, error) {
		return edit.RemoveGeneralInfoField(cfg, section, key), nil
	})
}
