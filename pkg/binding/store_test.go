package binding

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "cybermix", "state.json"))
}

func TestStoreRoundTrip(t *testing.T) {
	store := tempStore(t)

	records := []Record{
		{Page: 0, Channel: 0, Target: "system.master"},
		{Page: 0, Channel: 2, Target: "spotify.exe"},
		{Page: 2, Channel: 4, Target: "discord.exe"},
	}
	values := []float64{0.5, 0.1, 0.75, 1.0, 0.0}

	require.NoError(t, store.Save(1, values, records))

	page, faderValues, loaded, err := store.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), page)
	assert.Equal(t, values, faderValues)
	assert.Equal(t, records, loaded)
}

func TestStoreMissingFile(t *testing.T) {
	store := tempStore(t)

	page, faderValues, records, err := store.Load(nil)
	require.NoError(t, err)
	assert.Zero(t, page)
	assert.Nil(t, faderValues)
	assert.Nil(t, records)
}

func TestStoreSkipsMalformedRecords(t *testing.T) {
	store := tempStore(t)

	// Hand-build a state file with one healthy, one structurally wrong and
	// one empty-target record.
	state := State{
		Version: StateVersion,
		Page:    0,
		Bindings: []json.RawMessage{
			json.RawMessage(`{"page":0,"channel":1,"target":"vlc.exe"}`),
			json.RawMessage(`{"page":"zero","channel":1,"target":"bad.exe"}`),
			json.RawMessage(`{"page":1,"channel":2,"target":""}`),
		},
	}
	data, err := json.MarshalIndent(&state, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0755))
	require.NoError(t, os.WriteFile(store.Path(), data, 0644))

	var warned int
	_, _, records, err := store.Load(func(raw []byte, err error) { warned++ })
	require.NoError(t, err)

	assert.Equal(t, []Record{{Page: 0, Channel: 1, Target: "vlc.exe"}}, records)
	assert.Equal(t, 2, warned)
}

func TestStoreCorruptFileStartsEmpty(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))

	var warned int
	page, values, records, err := store.Load(func(raw []byte, err error) { warned++ })
	require.NoError(t, err)
	assert.Equal(t, uint8(0), page)
	assert.Nil(t, values)
	assert.Nil(t, records)
	assert.Equal(t, 1, warned)
}

func TestStoreClear(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(0, nil, nil))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear()) // idempotent

	_, _, records, err := store.Load(nil)
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestManagerImportExportRoundTrip(t *testing.T) {
	m := newTestManager(nil)
	require.NoError(t, m.Assign(0, 0, "system.master"))
	require.NoError(t, m.Assign(1, 3, "spotify.exe"))

	store := tempStore(t)
	require.NoError(t, store.Save(0, nil, m.Export()))

	_, _, records, err := store.Load(nil)
	require.NoError(t, err)

	restored := newTestManager(nil)
	restored.Import(records, func(rec Record, err error) {
		t.Fatalf("unexpected import warning for %+v: %v", rec, err)
	})

	assert.Equal(t, m.Export(), restored.Export())
}

func TestManagerImportDropsConflicts(t *testing.T) {
	m := newTestManager(nil)

	var warnings []Record
	m.Import([]Record{
		{Page: 0, Channel: 0, Target: "a"},
		{Page: 0, Channel: 1, Target: "a"}, // conflict
		{Page: 9, Channel: 0, Target: "b"}, // out of range
		{Page: 0, Channel: 2, Target: "c"},
	}, func(rec Record, err error) { warnings = append(warnings, rec) })

	assert.Len(t, warnings, 2)
	assert.Equal(t, []Record{
		{Page: 0, Channel: 0, Target: "a"},
		{Page: 0, Channel: 2, Target: "c"},
	}, m.Export())
}
