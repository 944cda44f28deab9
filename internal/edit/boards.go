package edit

import (
	"strings"

	"evalgo.org/adjvalet/models"
)

// AddBoard appends a board and its manifest entry. The name must be new and
// info.BoardID must not be used by another board.
func AddBoard(cfg *models.ADJConfig, name string, info models.BoardInfo) (*models.ADJConfig, error) {
	if blank(name) {
		return nil, invalid("board name is required")
	}
	if _, exists := cfg.Board(name); exists {
		return nil, duplicate("board %q already exists", name)
	}
	if other, taken := cfg.BoardByID(info.BoardID); taken {
		return nil, duplicate("board_id %d is already used by board %q", info.BoardID, other)
	}
	if err := checkMeasurementIDs(info.Measurements); err != nil {
		return nil, err
	}
	if err := checkPacketIDs(info.Packets); err != nil {
		return nil, err
	}
	return cfg.WithBoard(name, info.Clone()), nil
}

// RemoveBoard drops a board and its manifest entry. Removing a board that
// does not exist returns cfg unchanged.
func RemoveBoard(cfg *models.ADJConfig, name string) *models.ADJConfig {
	return cfg.WithoutBoard(name)
}

// RenameBoard renames a board, keeping its position in the document.
func RenameBoard(cfg *models.ADJConfig, oldName, newName string) (*models.ADJConfig, error) {
	if blank(newName) {
		return nil, invalid("new board name is required")
	}
	if _, err := board(cfg, oldName); err != nil {
		return nil, err
	}
	if oldName == newName {
		return cfg, nil
	}
	if _, exists := cfg.Board(newName); exists {
		return nil, duplicate("board %q already exists", newName)
	}
	return cfg.WithBoardRenamed(oldName, newName), nil
}

// SetBoardID changes a board's board_id. Ids colliding with another board
// are rejected before anything changes.
func SetBoardID(cfg *models.ADJConfig, name string, id uint32) (*models.ADJConfig, error) {
	b, err := board(cfg, name)
	if err != nil {
		return nil, err
	}
	if b.BoardID == id {
		return cfg, nil
	}
	if other, taken := cfg.BoardByID(id); taken {
		return nil, duplicate("board_id %d is already used by board %q", id, other)
	}
	b.BoardID = id
	return cfg.WithBoard(name, b), nil
}

// SetBoardIP changes a board's board_ip. The address format is checked on
// save, not here, so partially typed addresses can be stored.
func SetBoardIP(cfg *models.ADJConfig, name, ip string) (*models.ADJConfig, error) {
	b, err := board(cfg, name)
	if err != nil {
		return nil, err
	}
	ip = strings.TrimSpace(ip)
	if b.BoardIP == ip {
		return cfg, nil
	}
	b.BoardIP = ip
	return cfg.WithBoard(name, b), nil
}
