package edit

import (
	"encoding/json"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/adjvalet/models"
)

func obccu() models.BoardInfo {
	return models.BoardInfo{BoardID: 101, BoardIP: "10.0.0.1"}
}

func temp() models.Measurement {
	return models.Measurement{ID: "25", Name: "Temp", Type: models.TypeFloat32, PodUnits: "C", DisplayUnits: "C"}
}

// manifestMatches checks that board_list keys equal the board names.
func manifestMatches(t *testing.T, cfg *models.ADJConfig) {
	t.Helper()
	names := cfg.BoardNames()
	keys := make([]string, 0, len(cfg.BoardList))
	for k := range cfg.BoardList {
		keys = append(keys, k)
	}
	sort.Strings(names)
	sort.Strings(keys)
	assert.Equal(t, names, keys)
}

func TestScenario_AddBoardsAndMeasurement(t *testing.T) {
	cfg, err := AddBoard(nil, "OBCCU", obccu())
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Len())
	assert.Contains(t, cfg.BoardList, "OBCCU")

	cfg, err = AddMeasurement(cfg, "OBCCU", temp())
	require.NoError(t, err)
	b, _ := cfg.Board("OBCCU")
	assert.Len(t, b.Measurements, 1)

	next, err := AddBoard(cfg, "VCU", models.BoardInfo{BoardID: 101, BoardIP: "10.0.0.2"})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Nil(t, next)
	assert.Equal(t, 1, cfg.Len())
	manifestMatches(t, cfg)
}

func TestAddBoard_Uniqueness(t *testing.T) {
	ops := []struct {
		name    string
		id      uint32
		wantErr error
	}{
		{"A", 1, nil},
		{"B", 2, nil},
		{"A", 3, ErrDuplicateID},
		{"C", 2, ErrDuplicateID},
		{"", 4, ErrInvalidArgument},
		{"D", 4, nil},
	}

	var cfg *models.ADJConfig
	for _, op := range ops {
		next, err := AddBoard(cfg, op.name, models.BoardInfo{BoardID: op.id, BoardIP: "10.0.0.1"})
		if op.wantErr != nil {
			assert.ErrorIs(t, err, op.wantErr, "add %q/%d", op.name, op.id)
			continue
		}
		require.NoError(t, err)
		cfg = next
		manifestMatches(t, cfg)
	}

	assert.Equal(t, []string{"A", "B", "D"}, cfg.BoardNames())
	ids := map[uint32]bool{}
	for _, name := range cfg.BoardNames() {
		b, _ := cfg.Board(name)
		assert.False(t, ids[b.BoardID], "board_id %d repeated", b.BoardID)
		ids[b.BoardID] = true
	}
}

func TestAddBoard_RejectsDuplicateChildren(t *testing.T) {
	info := obccu()
	info.Measurements = []models.Measurement{temp(), temp()}
	_, err := AddBoard(nil, "OBCCU", info)
	assert.ErrorIs(t, err, ErrDuplicateID)

	id := models.PacketID(3)
	info = obccu()
	info.Packets = []models.Packet{{ID: &id, Name: "a"}, {ID: &id, Name: "b"}}
	_, err = AddBoard(nil, "OBCCU", info)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestRemoveBoard_Idempotent(t *testing.T) {
	cfg, err := AddBoard(nil, "OBCCU", obccu())
	require.NoError(t, err)

	same := RemoveBoard(cfg, "missing")
	assert.Same(t, cfg, same)

	empty := RemoveBoard(cfg, "OBCCU")
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.BoardList)
	assert.Equal(t, 1, cfg.Len(), "input must not change")

	assert.Nil(t, RemoveBoard(nil, "OBCCU"))
}

func TestRenameBoard(t *testing.T) {
	cfg, err := AddBoard(nil, "A", models.BoardInfo{BoardID: 1})
	require.NoError(t, err)
	cfg, err = AddBoard(cfg, "B", models.BoardInfo{BoardID: 2})
	require.NoError(t, err)

	renamed, err := RenameBoard(cfg, "A", "Z")
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "B"}, renamed.BoardNames())
	assert.Equal(t, "boards/Z/Z.json", renamed.BoardList["Z"])
	manifestMatches(t, renamed)

	_, err = RenameBoard(cfg, "A", "B")
	assert.ErrorIs(t, err, ErrDuplicateID)
	_, err = RenameBoard(cfg, "missing", "C")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = RenameBoard(cfg, "A", " ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	same, err := RenameBoard(cfg, "A", "A")
	require.NoError(t, err)
	assert.Same(t, cfg, same)
}

func TestSetBoardID_RejectsCollision(t *testing.T) {
	cfg, err := AddBoard(nil, "A", models.BoardInfo{BoardID: 1})
	require.NoError(t, err)
	cfg, err = AddBoard(cfg, "B", models.BoardInfo{BoardID: 2})
	require.NoError(t, err)

	_, err = SetBoardID(cfg, "B", 1)
	assert.ErrorIs(t, err, ErrDuplicateID)
	b, _ := cfg.Board("B")
	assert.Equal(t, uint32(2), b.BoardID)

	next, err := SetBoardID(cfg, "B", 7)
	require.NoError(t, err)
	b, _ = next.Board("B")
	assert.Equal(t, uint32(7), b.BoardID)

	_, err = SetBoardID(cfg, "missing", 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetBoardIP(t *testing.T) {
	cfg, err := AddBoard(nil, "A", obccu())
	require.NoError(t, err)

	next, err := SetBoardIP(cfg, "A", " 192.168.1.4 ")
	require.NoError(t, err)
	b, _ := next.Board("A")
	assert.Equal(t, "192.168.1.4", b.BoardIP)

	old, _ := cfg.Board("A")
	assert.Equal(t, "10.0.0.1", old.BoardIP)
}

func TestAddMeasurement_Errors(t *testing.T) {
	cfg, err := AddBoard(nil, "OBCCU", obccu())
	require.NoError(t, err)
	cfg, err = AddMeasurement(cfg, "OBCCU", temp())
	require.NoError(t, err)

	_, err = AddMeasurement(cfg, "OBCCU", temp())
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = AddMeasurement(cfg, "VCU", temp())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = AddMeasurement(cfg, "OBCCU", models.Measurement{ID: "x"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = AddMeasurement(cfg, "OBCCU", models.Measurement{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func boardWithPacket(t *testing.T) *models.ADJConfig {
	t.Helper()
	cfg, err := AddBoard(nil, "OBCCU", obccu())
	require.NoError(t, err)
	cfg, err = AddMeasurement(cfg, "OBCCU", temp())
	require.NoError(t, err)
	cfg, err = AddMeasurement(cfg, "OBCCU", models.Measurement{ID: "26", Name: "Pressure", Type: models.TypeUint16})
	require.NoError(t, err)
	id := models.PacketID(300)
	cfg, err = AddPacket(cfg, "OBCCU", models.Packet{ID: &id, Name: "state", Type: "data", Variables: []string{"25", "26"}})
	require.NoError(t, err)
	return cfg
}

func TestUpdateMeasurement_RenameRewritesPackets(t *testing.T) {
	cfg := boardWithPacket(t)

	next, err := UpdateMeasurement(cfg, "OBCCU", "25", SetMeasurementID("temp"), SetMeasurementName("Temperature"))
	require.NoError(t, err)

	b, _ := next.Board("OBCCU")
	assert.Equal(t, "temp", b.Measurements[0].ID)
	assert.Equal(t, "Temperature", b.Measurements[0].Name)
	assert.Equal(t, []string{"temp", "26"}, b.Packets[0].Variables)

	old, _ := cfg.Board("OBCCU")
	assert.Equal(t, "25", old.Measurements[0].ID)
	assert.Equal(t, []string{"25", "26"}, old.Packets[0].Variables)
}

func TestUpdateMeasurement_Errors(t *testing.T) {
	cfg := boardWithPacket(t)

	_, err := UpdateMeasurement(cfg, "OBCCU", "99", SetMeasurementName("x"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = UpdateMeasurement(cfg, "OBCCU", "25", SetMeasurementID("26"))
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = UpdateMeasurement(cfg, "OBCCU", "25", SetMeasurementType("float128"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = UpdateMeasurement(cfg, "OBCCU", "25", SetOutOfRange(10, 0))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = UpdateMeasurement(cfg, "OBCCU", "25", SetThreshold("sideways", models.Safe, 1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateMeasurement_Thresholds(t *testing.T) {
	cfg := boardWithPacket(t)

	next, err := UpdateMeasurement(cfg, "OBCCU", "25",
		SetThreshold(models.Above, models.Safe, 60),
		SetThreshold(models.Above, models.Warning, 70),
		SetThreshold(models.Below, models.Warning, -10),
		SetOutOfRange(-40, 125),
		SetEnumValues(),
	)
	require.NoError(t, err)

	b, _ := next.Board("OBCCU")
	m := b.Measurements[0]
	require.NotNil(t, m.Thresholds)
	assert.Equal(t, models.Limit{Safe: 60, Warning: 70}, m.Thresholds.Above)
	assert.Equal(t, models.Limit{Safe: 0, Warning: -10}, m.Thresholds.Below)
	assert.Equal(t, &[2]float64{-40, 125}, m.OutOfRange)

	old, _ := cfg.Board("OBCCU")
	assert.Nil(t, old.Measurements[0].Thresholds)

	cleared, err := UpdateMeasurement(next, "OBCCU", "25", ClearThresholds(), ClearOutOfRange())
	require.NoError(t, err)
	b, _ = cleared.Board("OBCCU")
	assert.Nil(t, b.Measurements[0].Thresholds)
	assert.Nil(t, b.Measurements[0].OutOfRange)
}

func TestRemoveMeasurement_DropsReferences(t *testing.T) {
	cfg := boardWithPacket(t)

	next := RemoveMeasurement(cfg, "OBCCU", "25")
	b, _ := next.Board("OBCCU")
	require.Len(t, b.Measurements, 1)
	assert.Equal(t, []string{"26"}, b.Packets[0].Variables)

	assert.Same(t, cfg, RemoveMeasurement(cfg, "OBCCU", "missing"))
	assert.Same(t, cfg, RemoveMeasurement(cfg, "missing", "25"))
}

func TestPackets(t *testing.T) {
	cfg := boardWithPacket(t)

	_, err := AddPacket(cfg, "OBCCU", models.Packet{ID: ptrID(300), Name: "dup"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = AddPacket(cfg, "OBCCU", models.Packet{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg, err = AddPacket(cfg, "OBCCU", models.Packet{Name: "control", Type: "order"})
	require.NoError(t, err)

	cfg, err = UpdatePacket(cfg, "OBCCU", ByPacketName("control"), AddVariable("25"), AddVariable("25"), SetPacketType("order"))
	require.NoError(t, err)
	b, _ := cfg.Board("OBCCU")
	assert.Equal(t, []string{"25"}, b.Packets[1].Variables)

	_, err = UpdatePacket(cfg, "OBCCU", ByPacketName("control"), SetPacketID(300))
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = UpdatePacket(cfg, "OBCCU", ByPacketID(999), SetPacketName("x"))
	assert.ErrorIs(t, err, ErrNotFound)

	cfg, err = UpdatePacket(cfg, "OBCCU", PacketRef("300"), RemoveVariable("26"), SetPacketName("status"))
	require.NoError(t, err)
	b, _ = cfg.Board("OBCCU")
	assert.Equal(t, "status", b.Packets[0].Name)
	assert.Equal(t, []string{"25"}, b.Packets[0].Variables)

	cfg = RemovePacket(cfg, "OBCCU", PacketRef("control"))
	b, _ = cfg.Board("OBCCU")
	require.Len(t, b.Packets, 1)
	assert.Same(t, cfg, RemovePacket(cfg, "OBCCU", ByPacketName("missing")))
}

func TestPacketRef_FallsBackToName(t *testing.T) {
	cfg, err := AddBoard(nil, "A", obccu())
	require.NoError(t, err)
	cfg, err = AddPacket(cfg, "A", models.Packet{Name: "42"})
	require.NoError(t, err)

	next, err := UpdatePacket(cfg, "A", PacketRef("42"), SetPacketType("data"))
	require.NoError(t, err)
	b, _ := next.Board("A")
	assert.Equal(t, "data", b.Packets[0].Type)
}

func TestAssignPacketIDs(t *testing.T) {
	cfg, err := AddBoard(nil, "A", models.BoardInfo{BoardID: 1})
	require.NoError(t, err)
	cfg, err = AddBoard(cfg, "B", models.BoardInfo{BoardID: 2})
	require.NoError(t, err)
	cfg, err = AddPacket(cfg, "A", models.Packet{ID: ptrID(10), Name: "a1"})
	require.NoError(t, err)
	cfg, err = AddPacket(cfg, "A", models.Packet{Name: "a2"})
	require.NoError(t, err)
	cfg, err = AddPacket(cfg, "B", models.Packet{Name: "b1"})
	require.NoError(t, err)

	next, err := AssignPacketIDs(cfg)
	require.NoError(t, err)
	a, _ := next.Board("A")
	b, _ := next.Board("B")
	assert.Equal(t, ptrID(11), a.Packets[1].ID)
	assert.Equal(t, ptrID(12), b.Packets[0].ID)

	orig, _ := cfg.Board("A")
	assert.Nil(t, orig.Packets[1].ID)

	again, err := AssignPacketIDs(next)
	require.NoError(t, err)
	assert.Same(t, next, again)
}

func TestAssignPacketIDs_Exhausted(t *testing.T) {
	cfg, err := AddBoard(nil, "A", models.BoardInfo{BoardID: 1})
	require.NoError(t, err)
	cfg, err = AddPacket(cfg, "A", models.Packet{ID: ptrID(math.MaxUint32 - 1), Name: "last"})
	require.NoError(t, err)
	cfg, err = AddPacket(cfg, "A", models.Packet{Name: "fits"})
	require.NoError(t, err)

	next, err := AssignPacketIDs(cfg)
	require.NoError(t, err)
	b, _ := next.Board("A")
	assert.Equal(t, ptrID(math.MaxUint32), b.Packets[1].ID)

	next, err = AddPacket(next, "A", models.Packet{Name: "overflow"})
	require.NoError(t, err)
	_, err = AssignPacketIDs(next)
	assert.ErrorIs(t, err, ErrIDsExhausted)
}

func TestScenario_RenameGeneralInfoKey(t *testing.T) {
	var cfg models.ADJConfig
	require.NoError(t, json.Unmarshal([]byte(`{"general_info": {"ports": {"HTTP": 80}}}`), &cfg))

	next, err := UpdateGeneralInfoField(&cfg, "ports", "HTTP", "HTTPS", 443)
	require.NoError(t, err)
	assert.Equal(t, models.Section{"HTTPS": 443}, next.Section("ports"))
	assert.Equal(t, models.Section{"HTTP": float64(80)}, cfg.Section("ports"))
}

func TestGeneralInfoFields(t *testing.T) {
	cfg, err := UpdateGeneralInfoField(nil, "ports", "", "HTTP", 80)
	require.NoError(t, err)

	cfg, key, err := AddGeneralInfoField(cfg, "ports")
	require.NoError(t, err)
	assert.Equal(t, "new_key", key)

	cfg, key, err = AddGeneralInfoField(cfg, "ports")
	require.NoError(t, err)
	assert.Equal(t, "new_key_1", key)

	cfg, key, err = AddGeneralInfoField(cfg, "ports")
	require.NoError(t, err)
	assert.Equal(t, "new_key_2", key)
	assert.Equal(t, "", cfg.Section("ports")["new_key_2"])

	_, err = UpdateGeneralInfoField(cfg, "ports", "new_key", "HTTP", 1)
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = UpdateGeneralInfoField(cfg, "ports", "new_key", "", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = UpdateGeneralInfoField(cfg, "ports", "new_key", "x", []int{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = RemoveGeneralInfoField(cfg, "ports", "new_key_1")
	assert.NotContains(t, cfg.Section("ports"), "new_key_1")
	assert.Same(t, cfg, RemoveGeneralInfoField(cfg, "ports", "absent"))
	assert.Same(t, cfg, RemoveGeneralInfoField(cfg, "nosuchsection", "x"))
}

func ptrID(n uint32) *models.PacketID {
	id := models.PacketID(n)
	return &id
}
