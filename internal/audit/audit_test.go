package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	archive := NewArchive(dir)

	t.Run("SaveJSON creates the directory and writes the snapshot", func(t *testing.T) {
		snapshot := map[string]any{
			"title": "The Hobbit",
			"isbn":  "9780261102217",
		}

		filename, err := archive.SaveJSON("book", "7", "The Hobbit", snapshot)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(filename, "book-7-the-hobbit-"), filename)
		assert.True(t, strings.HasSuffix(filename, ".json"))

		content, err := os.ReadFile(filepath.Join(dir, filename))
		require.NoError(t, err)

		var loaded map[string]any
		require.NoError(t, json.Unmarshal(content, &loaded))
		assert.Equal(t, "The Hobbit", loaded["title"])
	})

	t.Run("each snapshot gets its own file", func(t *testing.T) {
		a, err := archive.SaveJSON("genre", "1", "Poetry", map[string]string{"name": "Poetry"})
		require.NoError(t, err)
		b, err := archive.SaveJSON("genre", "1", "Poetry", map[string]string{"name": "Poetry"})
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("unmarshalable data is rejected", func(t *testing.T) {
		_, err := archive.SaveJSON("book", "8", "", map[string]any{"ch": make(chan int)})
		assert.Error(t, err)
	})
}
