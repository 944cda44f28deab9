package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleADJ = `{
	"general_info": {
		"ports": {"HTTP": 80, "UDP": 8000},
		"addresses": {"backend": "192.168.0.9"},
		"units": {"temperature": "ºC"},
		"message_ids": {"start": 1}
	},
	"board_list": {
		"VCU": "boards/VCU/VCU.json",
		"OBCCU": "boards/OBCCU/OBCCU.json"
	},
	"boards": [
		{"VCU": {
			"board_id": 2,
			"board_ip": "192.168.1.3",
			"measurements": [
				{"id": "speed", "name": "Speed", "type": "float32",
				 "podUnits": "m/s", "displayUnits": "km/h",
				 "safeRange": [0, 100], "warningRange": [-5, 110]}
			],
			"packets": [
				{"id": 210, "type": "data", "name": "VCU state", "variables": ["speed"]}
			]
		}},
		{"OBCCU": {
			"board_id": 5,
			"board_ip": "192.168.1.5",
			"measurements": [],
			"packets": []
		}}
	]
}`

func TestADJConfig_UnmarshalWireForm(t *testing.T) {
	var cfg ADJConfig
	require.NoError(t, json.Unmarshal([]byte(sampleADJ), &cfg))

	assert.Equal(t, []string{"VCU", "OBCCU"}, cfg.BoardNames())
	assert.Equal(t, 2, cfg.Len())
	assert.Equal(t, float64(80), cfg.Section(SectionPorts)["HTTP"])

	vcu, ok := cfg.Board("VCU")
	require.True(t, ok)
	assert.Equal(t, uint32(2), vcu.BoardID)
	require.Len(t, vcu.Measurements, 1)

	speed := vcu.Measurements[0]
	require.NotNil(t, speed.Thresholds)
	assert.Equal(t, Limit{Safe: 100, Warning: 110}, speed.Thresholds.Above)
	assert.Equal(t, Limit{Safe: 0, Warning: -5}, speed.Thresholds.Below)

	require.Len(t, vcu.Packets, 1)
	require.NotNil(t, vcu.Packets[0].ID)
	assert.Equal(t, PacketID(210), *vcu.Packets[0].ID)
	assert.Equal(t, []string{"speed"}, vcu.Packets[0].Variables)

	obccu, ok := cfg.Board("OBCCU")
	require.True(t, ok)
	assert.Nil(t, obccu.Measurements)
	assert.Nil(t, obccu.Packets)
}

func TestADJConfig_RoundTrip(t *testing.T) {
	var first ADJConfig
	require.NoError(t, json.Unmarshal([]byte(sampleADJ), &first))

	data, err := json.Marshal(first)
	require.NoError(t, err)

	var second ADJConfig
	require.NoError(t, json.Unmarshal(data, &second))
	assert.Equal(t, first, second)

	again, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestADJConfig_MarshalEmitsRanges(t *testing.T) {
	cfg := (*ADJConfig)(nil).WithBoard("BMSL", BoardInfo{
		BoardID: 9,
		BoardIP: "10.0.0.9",
		Measurements: []Measurement{{
			ID:         "cell_temp",
			Name:       "Cell temperature",
			Type:       TypeFloat32,
			Thresholds: &Thresholds{Above: Limit{Safe: 60, Warning: 70}, Below: Limit{Safe: 5, Warning: 0}},
		}},
	})

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"general_info": {},
		"board_list": {"BMSL": "boards/BMSL/BMSL.json"},
		"boards": [{"BMSL": {
			"board_id": 9,
			"board_ip": "10.0.0.9",
			"measurements": [{
				"id": "cell_temp", "name": "Cell temperature", "type": "float32",
				"safeRange": [5, 60], "warningRange": [0, 70]
			}],
			"packets": []
		}}]
	}`, string(data))
}

func TestADJConfig_UnmarshalBoardMapping(t *testing.T) {
	doc := `{"general_info": {}, "board_list": {},
		"boards": {"b": {"board_id": 2, "board_ip": "1.1.1.2"}, "a": {"board_id": 1, "board_ip": "1.1.1.1"}}}`

	var cfg ADJConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &cfg))
	assert.Equal(t, []string{"a", "b"}, cfg.BoardNames())
}

func TestADJConfig_UnmarshalRejectsMultiKeyEntry(t *testing.T) {
	doc := `{"boards": [{"a": {"board_id": 1}, "b": {"board_id": 2}}]}`

	var cfg ADJConfig
	err := json.Unmarshal([]byte(doc), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one board name")
}

func TestMeasurement_UnmarshalAboveBelow(t *testing.T) {
	doc := `{"id": "v", "name": "Voltage", "type": "uint16",
		"above": {"safe": 400, "warning": 420},
		"below": {"safe": 300, "warning": 280},
		"out_of_range": [0, 500]}`

	var m Measurement
	require.NoError(t, json.Unmarshal([]byte(doc), &m))
	require.NotNil(t, m.Thresholds)
	assert.Equal(t, Limit{Safe: 400, Warning: 420}, m.Thresholds.Above)
	assert.Equal(t, Limit{Safe: 300, Warning: 280}, m.Thresholds.Below)
	require.NotNil(t, m.OutOfRange)
	assert.Equal(t, [2]float64{0, 500}, *m.OutOfRange)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "v", "name": "Voltage", "type": "uint16",
		"safeRange": [300, 400], "warningRange": [280, 420],
		"out_of_range": [0, 500]}`, string(data))
}

func TestPacket_UnmarshalVariants(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantID  *PacketID
		wantVar []string
	}{
		{
			name:    "numeric id and string variables",
			doc:     `{"id": 7, "name": "p", "type": "data", "variables": ["a", "b"]}`,
			wantID:  ptrID(7),
			wantVar: []string{"a", "b"},
		},
		{
			name:    "quoted id",
			doc:     `{"id": "42", "name": "p", "type": "data"}`,
			wantID:  ptrID(42),
			wantVar: nil,
		},
		{
			name:    "empty id",
			doc:     `{"id": "", "name": "p", "type": "data", "variables": []}`,
			wantID:  nil,
			wantVar: nil,
		},
		{
			name:    "legacy single-key variables",
			doc:     `{"name": "p", "type": "data", "variables": [{"temp": "temp"}, {"hum": "60"}]}`,
			wantID:  nil,
			wantVar: []string{"temp", "hum"},
		},
		{
			name:    "wrapped under packet_id",
			doc:     `{"packet_id": {"type": "data", "name": "p", "variables": [{"temp": "temp"}]}}`,
			wantID:  nil,
			wantVar: []string{"temp"},
		},
		{
			name:    "wrapped under its id",
			doc:     `{"211": {"type": "data", "name": "p", "variables": ["temp"]}}`,
			wantID:  ptrID(211),
			wantVar: []string{"temp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Packet
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &p))
			assert.Equal(t, tt.wantID, p.ID)
			assert.Equal(t, tt.wantVar, p.Variables)
		})
	}
}

func TestPacket_UnmarshalRejectsUnknownShape(t *testing.T) {
	for _, doc := range []string{
		`{}`,
		`{"label": "p"}`,
		`{"packet_id": {"name": "p"}, "extra": {}}`,
		`{"wrapper": {"name": "p"}}`,
	} {
		var p Packet
		assert.Error(t, json.Unmarshal([]byte(doc), &p), doc)
	}
}

func TestPacket_UnmarshalRejectsBadID(t *testing.T) {
	var p Packet
	assert.Error(t, json.Unmarshal([]byte(`{"id": "abc", "name": "p"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"id": -1, "name": "p"}`), &p))
}

func TestADJConfig_WithBoardKeepsOriginal(t *testing.T) {
	base := (*ADJConfig)(nil).WithBoard("A", BoardInfo{BoardID: 1, BoardIP: "10.0.0.1"})
	next := base.WithBoard("B", BoardInfo{BoardID: 2, BoardIP: "10.0.0.2"})

	assert.Equal(t, []string{"A"}, base.BoardNames())
	assert.Len(t, base.BoardList, 1)
	assert.Equal(t, []string{"A", "B"}, next.BoardNames())
	assert.Len(t, next.BoardList, 2)

	renamed := next.WithBoardRenamed("A", "C")
	assert.Equal(t, []string{"C", "B"}, renamed.BoardNames())
	assert.Equal(t, "boards/C/C.json", renamed.BoardList["C"])
	assert.NotContains(t, renamed.BoardList, "A")
	assert.Equal(t, []string{"A", "B"}, next.BoardNames())

	removed := renamed.WithoutBoard("B")
	assert.Equal(t, []string{"C"}, removed.BoardNames())
	assert.Same(t, removed, removed.WithoutBoard("missing"))
}

func TestADJConfig_WithoutBoardDropsOrphanManifestEntry(t *testing.T) {
	var cfg ADJConfig
	require.NoError(t, json.Unmarshal([]byte(`{
		"general_info": {},
		"board_list": {"VCU": "boards/VCU/VCU.json", "LCU": "boards/LCU/LCU.json"},
		"boards": [{"VCU": {"board_id": 1, "board_ip": "10.0.0.1", "measurements": [], "packets": []}}]
	}`), &cfg))

	next := cfg.WithoutBoard("LCU")
	assert.Equal(t, map[string]string{"VCU": "boards/VCU/VCU.json"}, next.BoardList)
	assert.Equal(t, []string{"VCU"}, next.BoardNames())
	assert.Contains(t, cfg.BoardList, "LCU")
}

func TestNewADJConfig(t *testing.T) {
	cfg, err := NewADJConfig(GeneralInfo{}, map[string]string{"A": "a.json"},
		[]string{"A"}, map[string]BoardInfo{"A": {BoardID: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, cfg.BoardNames())

	_, err = NewADJConfig(nil, nil, []string{"A"}, map[string]BoardInfo{})
	assert.Error(t, err)

	_, err = NewADJConfig(nil, nil, nil, map[string]BoardInfo{"A": {}})
	assert.Error(t, err)
}

func ptrID(n uint32) *PacketID {
	id := PacketID(n)
	return &id
}
