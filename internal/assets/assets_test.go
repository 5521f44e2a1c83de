package assets

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner_ServesIndex(t *testing.T) {
	data, err := fs.ReadFile(Banner(), "index.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), "You seem off-task")
}
