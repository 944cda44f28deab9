package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/adjvalet/models"
)

const document = `{
	"general_info": {"ports": {"HTTP": 80}},
	"board_list": {"VCU": "boards/VCU/VCU.json"},
	"boards": [{"VCU": {"board_id": 1, "board_ip": "10.0.0.1", "measurements": [], "packets": []}}]
}`

func sampleConfig(t *testing.T) *models.ADJConfig {
	t.Helper()
	var cfg models.ADJConfig
	require.NoError(t, json.Unmarshal([]byte(document), &cfg))
	return &cfg
}

func TestFile_MissingFile(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "state.yaml"), true)

	path, err := f.LoadPath()
	require.NoError(t, err)
	assert.Empty(t, path)

	snap, err := f.LoadSnapshot()
	require.NoError(t, err)
	assert.Nil(t, snap)

	assert.NoError(t, f.Clear())
}

func TestFile_PathAndSnapshot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "state.yaml")
	f := NewFile(file, true)

	require.NoError(t, f.SavePath("/srv/adj"))
	require.NoError(t, f.SaveSnapshot(sampleConfig(t)))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A fresh persister sees what the first one wrote.
	reopened := NewFile(file, true)

	path, err := reopened.LoadPath()
	require.NoError(t, err)
	assert.Equal(t, "/srv/adj", path)

	snap, err := reopened.LoadSnapshot()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, []string{"VCU"}, snap.BoardNames())

	want, err := json.Marshal(sampleConfig(t))
	require.NoError(t, err)
	got, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestFile_SaveSnapshotNilKeepsPath(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "state.yaml"), true)

	require.NoError(t, f.SavePath("/srv/adj"))
	require.NoError(t, f.SaveSnapshot(sampleConfig(t)))
	require.NoError(t, f.SaveSnapshot(nil))

	snap, err := f.LoadSnapshot()
	require.NoError(t, err)
	assert.Nil(t, snap)

	path, err := f.LoadPath()
	require.NoError(t, err)
	assert.Equal(t, "/srv/adj", path)
}

func TestFile_SnapshotsDisabled(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.yaml")
	f := NewFile(file, false)

	require.NoError(t, f.SaveSnapshot(sampleConfig(t)))
	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))

	// Snapshots written by another persister are ignored.
	require.NoError(t, NewFile(file, true).SaveSnapshot(sampleConfig(t)))
	snap, err := f.LoadSnapshot()
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFile_Clear(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.yaml")
	f := NewFile(file, true)

	require.NoError(t, f.SavePath("/srv/adj"))
	require.NoError(t, f.Clear())

	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))

	path, err := f.LoadPath()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFile_CorruptFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(file, []byte("config_path: [unterminated"), 0o600))

	_, err := NewFile(file, true).LoadPath()
	assert.Error(t, err)
}

func TestFile_DefaultPath(t *testing.T) {
	f := NewFile("", true)
	assert.Equal(t, DefaultPath(), f.Path())
	assert.Equal(t, "state.yaml", filepath.Base(f.Path()))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	cfg := sampleConfig(t)

	require.NoError(t, m.SavePath("/srv/adj"))
	require.NoError(t, m.SaveSnapshot(cfg))

	path, _ := m.LoadPath()
	assert.Equal(t, "/srv/adj", path)
	snap, _ := m.LoadSnapshot()
	assert.Same(t, cfg, snap)

	require.NoError(t, m.Clear())
	path, _ = m.LoadPath()
	assert.Empty(t, path)
	snap, _ = m.LoadSnapshot()
	assert.Nil(t, snap)
}
