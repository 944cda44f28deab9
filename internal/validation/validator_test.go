package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	v := New()
	assert.NotNil(t, v)
	assert.NotNil(t, v.structValidator)
}

const validDocument = `{
	"general_info": {
		"ports": {"HTTP": 80, "TCP_SERVER": 50500},
		"addresses": {"backend": "127.0.0.9"}
	},
	"board_list": {"VCU": "boards/VCU/VCU.json"},
	"boards": [{"VCU": {
		"board_id": 1,
		"board_ip": "192.168.1.3",
		"measurements": [
			{"id": "speed", "name": "Speed", "type": "float32", "safeRange": [0, 100], "warningRange": [0, 110]},
			{"id": "state", "name": "State", "type": "enum", "enumValues": ["IDLE", "RUN"]}
		],
		"packets": [
			{"id": 100, "name": "VCU data", "type": "data", "variables": ["speed", "state"]}
		]
	}}]
}`

func TestValidateDocument_Valid(t *testing.T) {
	v := New()

	result, err := v.ValidateDocument([]byte(validDocument))
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Summary())
	assert.Empty(t, result.Errors)
}

func TestValidateDocument_InvalidJSON(t *testing.T) {
	v := New()

	result, err := v.ValidateDocument([]byte(`{"boards": [`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "document", result.Errors[0].Field)
}

func TestValidateDocument_Errors(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		wantField string
	}{
		{
			name: "bad board ip",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "300.1.1.1"}}]}`,
			wantField: "boards.A.board_ip",
		},
		{
			name: "missing measurement name",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "10.0.0.1",
				"measurements": [{"id": "m", "type": "uint8"}]}}]}`,
			wantField: "boards.A.measurements[0].name",
		},
		{
			name: "unknown measurement type",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "10.0.0.1",
				"measurements": [{"id": "m", "name": "M", "type": "float128"}]}}]}`,
			wantField: "boards.A.measurements[0].type",
		},
		{
			name: "enum without values",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "10.0.0.1",
				"measurements": [{"id": "m", "name": "M", "type": "enum"}]}}]}`,
			wantField: "boards.A.measurements[0].enumValues",
		},
		{
			name: "duplicate measurement id",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "10.0.0.1",
				"measurements": [
					{"id": "m", "name": "M", "type": "bool"},
					{"id": "m", "name": "N", "type": "bool"}]}}]}`,
			wantField: "boards.A.measurements[1].id",
		},
		{
			name: "dangling packet variable",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "10.0.0.1",
				"packets": [{"id": 1, "name": "p", "type": "data", "variables": ["ghost"]}]}}]}`,
			wantField: "boards.A.packets[0].variables[0]",
		},
		{
			name: "duplicate packet id",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "10.0.0.1",
				"packets": [{"id": 1, "name": "p"}, {"id": 1, "name": "q"}]}}]}`,
			wantField: "boards.A.packets[1].id",
		},
		{
			name: "duplicate board id",
			document: `{"board_list": {"A": "a", "B": "b"}, "boards": [
				{"A": {"board_id": 1, "board_ip": "10.0.0.1"}},
				{"B": {"board_id": 1, "board_ip": "10.0.0.2"}}]}`,
			wantField: "boards.B.board_id",
		},
		{
			name: "board missing from manifest",
			document: `{"board_list": {}, "boards": [
				{"A": {"board_id": 1, "board_ip": "10.0.0.1"}}]}`,
			wantField: "board_list.A",
		},
		{
			name:      "manifest entry without board",
			document:  `{"board_list": {"ghost": "boards/ghost/ghost.json"}, "boards": []}`,
			wantField: "board_list.ghost",
		},
		{
			name:      "port out of range",
			document:  `{"general_info": {"ports": {"HTTP": 70000}}, "board_list": {}, "boards": []}`,
			wantField: "general_info.ports.HTTP",
		},
		{
			name:      "non scalar general info value",
			document:  `{"general_info": {"units": {"speed": {"si": "m/s"}}}, "board_list": {}, "boards": []}`,
			wantField: "general_info.units.speed",
		},
		{
			name: "inverted out of range",
			document: `{"board_list": {"A": "a"}, "boards": [{"A": {
				"board_id": 1, "board_ip": "10.0.0.1",
				"measurements": [{"id": "m", "name": "M", "type": "int8", "out_of_range": [5, 1]}]}}]}`,
			wantField: "boards.A.measurements[0].out_of_range",
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateDocument([]byte(tt.document))
			require.NoError(t, err)
			assert.False(t, result.Valid)

			fields := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	result := New().ValidateConfig(nil)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Summary(), "No configuration")
}
