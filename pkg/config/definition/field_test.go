package definition

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("Should expose every key in path order", func(t *testing.T) {
		fields := CreateRegistry().Fields()
		require.NotEmpty(t, fields)
		paths := make([]string, len(fields))
		for i, f := range fields {
			paths[i] = f.Path
		}
		assert.True(t, sort.StringsAreSorted(paths))
		assert.Contains(t, paths, "sheets.spreadsheet_id")
		assert.Contains(t, paths, "whatsapp.api_key")
	})

	t.Run("Should map flags to their config paths", func(t *testing.T) {
		flags := CreateRegistry().FlagPaths()
		assert.Equal(t, "sheets.spreadsheet_id", flags["sheet-id"])
		assert.Equal(t, "sheets.credentials_file", flags["credentials"])
		assert.Equal(t, "server.port", flags["port"])
		assert.NotContains(t, flags, "")
	})

	t.Run("Should return typed defaults", func(t *testing.T) {
		r := CreateRegistry()
		assert.Equal(t, 3000, r.Default("server.port"))
		assert.Equal(t, "55", r.Default("whatsapp.country_code"))
		assert.Nil(t, r.Default("does.not.exist"))
		_, ok := r.Field("does.not.exist")
		assert.False(t, ok)
	})

	t.Run("Should reject a default of the wrong type", func(t *testing.T) {
		assert.Panics(t, func() {
			NewRegistry().Register(&FieldDef{Path: "server.port", Default: "3000", Type: intType})
		})
	})

	t.Run("Should reject repeated paths and flags", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&FieldDef{Path: "sheets.spreadsheet_id", Default: "", CLIFlag: "sheet-id", Type: stringType})
		assert.Panics(t, func() {
			r.Register(&FieldDef{Path: "sheets.spreadsheet_id", Default: "", Type: stringType})
		})
		assert.Panics(t, func() {
			r.Register(&FieldDef{Path: "sheets.other_id", Default: "", CLIFlag: "sheet-id", Type: stringType})
		})
	})
}
