package transactions

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The stored margin percent is read back as computed, so its column must
// neither round nor bound the value.
func TestSchemaStoresMarginPercentUnbounded(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)

	column := regexp.MustCompile(`(?m)^\s*margin_percent\s+([A-Z ]+?(?:\([^)]*\))?)\s+NOT NULL`).FindSubmatch(data)
	require.NotNil(t, column, "margin_percent column not found")
	assert.Equal(t, "DOUBLE PRECISION", string(column[1]))
}
