package history

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func exportArchive() Archive {
	return Archive{Entries: []Entry{
		{Index: 0, Game: archivedAt(1700000000000, "01h5n0et5q6mt3v7ms1234abcd")},
		{Index: 1, Game: archivedAt(1690000000000, "")},
	}}
}

func TestExportJSON(t *testing.T) {
	a := exportArchive()
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, a, FormatJSON, false))

	var got []ExportedGame
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "01h5n0et5q6mt3v7ms1234abcd", got[0].ID)
	assert.Empty(t, got[1].ID)
	assert.Equal(t, 95, got[0].Minutes)
	assert.Nil(t, got[0].Tables)

	players := a.Entries[0].Game.Players()
	require.Len(t, got[0].Standings, len(players))
	assert.Equal(t, 1, got[0].Standings[0].Place)
}

func TestExportYAMLWithTables(t *testing.T) {
	a := exportArchive()
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, a, FormatYAML, true))
	assert.Contains(t, buf.String(), "standings:")
	assert.Contains(t, buf.String(), "id: 01h5n0et5q6mt3v7ms1234abcd")

	var got []ExportedGame
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Tables)
	g := a.Entries[0].Game
	assert.Equal(t, g.Players(), got[0].Tables.Players)
	assert.Equal(t, g.Score(), got[0].Tables.Score)
	assert.Equal(t, g.Rules().Names(), got[0].Rules)
}

func TestExportUnknownFormat(t *testing.T) {
	assert.ErrorContains(t, Export(&bytes.Buffer{}, Archive{}, "xml", false), "unknown export format")
}
