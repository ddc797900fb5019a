package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcastio/snowcast/internal/forecast"
)

func record(id string) forecast.ResortRecord {
	return forecast.ResortRecord{ID: id, Name: id, Country: "AT"}
}

func TestColdStartSignalsNotReady(t *testing.T) {
	d := NewDataset()

	assert.False(t, d.Ready())

	_, err := d.Get("st-anton")
	assert.ErrorIs(t, err, ErrNotReady)

	_, _, err = d.List()
	assert.ErrorIs(t, err, ErrNotReady)

	_, _, err = d.GetMany([]string{"st-anton"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestMergeIsAdditive(t *testing.T) {
	d := NewDataset()
	t1 := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Hour)

	d.Merge(map[string]forecast.ResortRecord{"a": record("a")}, t1)
	d.Merge(map[string]forecast.ResortRecord{"b": record("b")}, t2)

	records, updated, err := d.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, t2, updated)
}

func TestMergeOverwritesSameID(t *testing.T) {
	d := NewDataset()
	now := time.Now().UTC()

	old := record("a")
	old.Name = "old name"
	d.Merge(map[string]forecast.ResortRecord{"a": old}, now)

	updated := record("a")
	updated.Name = "new name"
	d.Merge(map[string]forecast.ResortRecord{"a": updated}, now.Add(time.Hour))

	rec, err := d.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "new name", rec.Name)
	assert.Equal(t, 1, d.Size())
}

func TestEmptyMergeKeepsRecordsButMarksCompletion(t *testing.T) {
	d := NewDataset()
	t1 := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Hour)

	d.Merge(map[string]forecast.ResortRecord{"a": record("a")}, t1)
	before, _, err := d.List()
	require.NoError(t, err)

	d.Merge(nil, t2)

	after, updated, err := d.List()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, t2, updated)
}

func TestEmptyMergeStillMarksReady(t *testing.T) {
	d := NewDataset()
	d.Merge(nil, time.Now().UTC())

	// A completed cycle with zero records is "no resorts", not "initializing".
	assert.True(t, d.Ready())
	records, _, err := d.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = d.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMany(t *testing.T) {
	d := NewDataset()
	d.Merge(map[string]forecast.ResortRecord{
		"a": record("a"),
		"b": record("b"),
		"c": record("c"),
	}, time.Now().UTC())

	records, _, err := d.GetMany([]string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
}
