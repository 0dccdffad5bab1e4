package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTestDB_CreatesSchema(t *testing.T) {
	db := NewTestDB(t)

	var count int
	err := db.Connection().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN
		('type_definitions', 'part_definitions', 'group_definitions', 'snapshots')`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestNewCatalog(t *testing.T) {
	c := NewCatalog(t)
	require.Len(t, c.Repo.Parts(), 3)

	exp := c.Exporter(t, "calculator")
	require.NotNil(t, exp.GroupExport())
	require.Equal(t, "calc", exp.GroupExport().ContractName())

	imp := c.Importer(t, "consumer", c.Optional)
	require.True(t, imp.IsOptionalImport(Import(t, imp)))
}
