// Package models defines the ADJ configuration document.
//
// An ADJ describes a deployment: global general info sections and a set of
// named boards, each with its measurements and packets.
//
// In memory, boards are kept as an ordered name → BoardInfo mapping and
// measurement thresholds as above/below limits. The JSON codec converts to
// and from the backend's wire form, where boards are a list of single-key
// objects and thresholds are safeRange/warningRange pairs:
//
//	{
//	  "general_info": {"ports": {"HTTP": 80}},
//	  "board_list": {"VCU": "boards/VCU/VCU.json"},
//	  "boards": [
//	    {"VCU": {"board_id": 1, "board_ip": "192.168.1.3",
//	             "measurements": [], "packets": []}}
//	  ]
//	}
//
// An *ADJConfig is treated as immutable once shared: the With* methods
// return a new value that reuses every unchanged branch.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
)

// ADJConfig is the aggregate root of the configuration document.
type ADJConfig struct {
	// GeneralInfo holds global sections (ports, addresses, units, ...)
	GeneralInfo GeneralInfo

	// BoardList is the manifest: board name → board file path
	BoardList map[string]string

	boards map[string]BoardInfo
	order  []string
}

// NewADJConfig builds a config from its parts. Boards are added in the
// order of names; every name must have an entry in boards.
func NewADJConfig(info GeneralInfo, boardList map[string]string, names []string, boards map[string]BoardInfo) (*ADJConfig, error) {
	c := &ADJConfig{
		GeneralInfo: info,
		BoardList:   boardList,
		boards:      make(map[string]BoardInfo, len(names)),
		order:       make([]string, 0, len(names)),
	}
	for _, name := range names {
		b, ok := boards[name]
		if !ok {
			return nil, fmt.Errorf("board %q has no definition", name)
		}
		if _, dup := c.boards[name]; dup {
			return nil, fmt.Errorf("board %q listed twice", name)
		}
		c.boards[name] = b
		c.order = append(c.order, name)
	}
	if len(boards) != len(names) {
		return nil, fmt.Errorf("%d boards defined but %d named", len(boards), len(names))
	}
	return c, nil
}

// Len returns the number of boards.
func (c *ADJConfig) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// BoardNames returns board names in document order.
func (c *ADJConfig) BoardNames() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.order)
}

// Board returns the board named name.
func (c *ADJConfig) Board(name string) (BoardInfo, bool) {
	if c == nil {
		return BoardInfo{}, false
	}
	b, ok := c.boards[name]
	return b, ok
}

// BoardByID returns the name of the board with the given board_id.
func (c *ADJConfig) BoardByID(id uint32) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, name := range c.order {
		if c.boards[name].BoardID == id {
			return name, true
		}
	}
	return "", false
}

// Section returns the general info section, or nil.
func (c *ADJConfig) Section(name string) Section {
	if c == nil {
		return nil
	}
	return c.GeneralInfo[name]
}

func (c *ADJConfig) shallow() *ADJConfig {
	if c == nil {
		return &ADJConfig{
			GeneralInfo: GeneralInfo{},
			BoardList:   map[string]string{},
		}
	}
	out := *c
	return &out
}

// WithBoard returns a copy of c where board name is set to info. A new
// board is appended and gets a manifest entry; an existing board keeps its
// position and manifest path.
func (c *ADJConfig) WithBoard(name string, info BoardInfo) *ADJConfig {
	out := c.shallow()
	out.boards = maps.Clone(out.boards)
	if out.boards == nil {
		out.boards = map[string]BoardInfo{}
	}
	if _, exists := out.boards[name]; !exists {
		out.order = append(slices.Clone(out.order), name)
		if _, listed := out.BoardList[name]; !listed {
			out.BoardList = maps.Clone(out.BoardList)
			if out.BoardList == nil {
				out.BoardList = map[string]string{}
			}
			out.BoardList[name] = BoardPath(name)
		}
	}
	out.boards[name] = info
	return out
}

// WithoutBoard returns a copy of c without board name and its manifest
// entry. A manifest entry with no board behind it is dropped as well. c
// itself is returned when neither exists.
func (c *ADJConfig) WithoutBoard(name string) *ADJConfig {
	if c == nil {
		return c
	}
	_, hasBoard := c.Board(name)
	_, listed := c.BoardList[name]
	if !hasBoard && !listed {
		return c
	}
	out := c.shallow()
	if hasBoard {
		out.boards = maps.Clone(out.boards)
		delete(out.boards, name)
		out.order = slices.DeleteFunc(slices.Clone(out.order), func(n string) bool { return n == name })
	}
	out.BoardList = maps.Clone(out.BoardList)
	delete(out.BoardList, name)
	return out
}

// WithBoardRenamed returns a copy of c with board oldName renamed to
// newName in place. The manifest entry moves to BoardPath(newName).
func (c *ADJConfig) WithBoardRenamed(oldName, newName string) *ADJConfig {
	info, ok := c.Board(oldName)
	if !ok {
		return c
	}
	out := c.shallow()
	out.boards = maps.Clone(out.boards)
	delete(out.boards, oldName)
	out.boards[newName] = info
	out.order = slices.Clone(out.order)
	out.order[slices.Index(out.order, oldName)] = newName
	out.BoardList = maps.Clone(out.BoardList)
	if out.BoardList == nil {
		out.BoardList = map[string]string{}
	}
	delete(out.BoardList, oldName)
	out.BoardList[newName] = BoardPath(newName)
	return out
}

// WithGeneralInfo returns a copy of c with general info replaced.
func (c *ADJConfig) WithGeneralInfo(info GeneralInfo) *ADJConfig {
	out := c.shallow()
	out.GeneralInfo = info
	return out
}

type wireConfig struct {
	GeneralInfo GeneralInfo       `json:"general_info"`
	BoardList   map[string]string `json:"board_list"`
	Boards      json.RawMessage   `json:"boards"`
}

// MarshalJSON encodes boards as a list of single-key objects in order.
func (c ADJConfig) MarshalJSON() ([]byte, error) {
	boards := make([]map[string]BoardInfo, 0, len(c.order))
	for _, name := range c.order {
		boards = append(boards, map[string]BoardInfo{name: c.boards[name]})
	}
	rawBoards, err := json.Marshal(boards)
	if err != nil {
		return nil, err
	}

	w := wireConfig{
		GeneralInfo: c.GeneralInfo,
		BoardList:   c.BoardList,
		Boards:      rawBoards,
	}
	if w.GeneralInfo == nil {
		w.GeneralInfo = GeneralInfo{}
	}
	if w.BoardList == nil {
		w.BoardList = map[string]string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes boards given either as a list of single-key
// objects or as a name-keyed object (names sorted in that case).
func (c *ADJConfig) UnmarshalJSON(data []byte) error {
	var w wireConfig
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := ADJConfig{
		GeneralInfo: w.GeneralInfo,
		BoardList:   w.BoardList,
		boards:      map[string]BoardInfo{},
	}
	if out.GeneralInfo == nil {
		out.GeneralInfo = GeneralInfo{}
	}
	if out.BoardList == nil {
		out.BoardList = map[string]string{}
	}

	raw := bytes.TrimSpace(w.Boards)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '{':
		var byName map[string]BoardInfo
		if err := json.Unmarshal(raw, &byName); err != nil {
			return fmt.Errorf("decode boards: %w", err)
		}
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out.boards[name] = byName[name]
			out.order = append(out.order, name)
		}
	default:
		var entries []map[string]BoardInfo
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("decode boards: %w", err)
		}
		for i, entry := range entries {
			if len(entry) != 1 {
				return fmt.Errorf("boards[%d]: expected exactly one board name, got %d", i, len(entry))
			}
			for name, info := range entry {
				if _, dup := out.boards[name]; dup {
					return fmt.Errorf("boards[%d]: duplicate board %q", i, name)
				}
				out.boards[name] = info
				out.order = append(out.order, name)
			}
		}
	}

	*c = out
	return nil
}
