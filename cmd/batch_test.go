package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestLoadPairs(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pairs.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{
				"contact_id": "c-1",
				"profile": {"id": "eps-1", "full_name": "Jo Lee", "phone": "+14155551234"},
				"selected_keys": ["phone"]
			}
		]`), 0o644))

		pairs, err := loadPairs(path)
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, "c-1", pairs[0].ContactID)
		assert.Equal(t, "eps-1", pairs[0].Profile.ID)
		assert.Equal(t, []string{model.FieldPhone}, pairs[0].SelectedKeys)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadPairs(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pairs.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

		_, err := loadPairs(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse batch input")
	})
}
