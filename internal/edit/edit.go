// Package edit implements the structural mutations of an ADJ document as
// pure functions.
//
// Every function takes the current *models.ADJConfig and returns the next
// one. Inputs are never modified: unchanged boards, lists and sections are
// shared between the old and the new value. Removing something that does
// not exist returns the input pointer itself.
//
// A nil config is an empty document. Operations that create something
// (AddBoard, UpdateGeneralInfoField, AddGeneralInfoField) start a fresh
// document from it.
package edit

import (
	"errors"
	"fmt"
	"strings"

	"evalgo.org/adjvalet/models"
)

var (
	// ErrInvalidArgument reports an empty or malformed input value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports a missing board, measurement or packet.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID reports a collision on a board name or id, a
	// measurement id, a packet id or a general info key.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrIDsExhausted reports that no packet id above the highest one in
	// use is left to assign.
	ErrIDsExhausted = errors.New("packet ids exhausted")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func duplicate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDuplicateID, fmt.Sprintf(format, args...))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// board fetches a board or fails with ErrNotFound.
func board(cfg *models.ADJConfig, name string) (models.BoardInfo, error) {
	b, ok := cfg.Board(name)
	if !ok {
		return models.BoardInfo{}, notFound("board %q", name)
	}
	return b, nil
}
