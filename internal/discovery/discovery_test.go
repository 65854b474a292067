package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestFileTypeString(t *testing.T) {
	assert.Equal(t, "catalog", FileTypeCatalog.String())
	assert.Equal(t, "weights", FileTypeWeights.String())
	assert.Equal(t, "unknown", FileTypeUnknown.String())
}

func TestDiscoverFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "catalogs/b.yaml", "categories: []")
	writeFile(t, root, "catalogs/nested/a.yml", "categories: []")
	writeFile(t, root, "catalogs/readme.md", "ignored")
	writeFile(t, root, "weights/productos.yaml", "categoryType: productos")

	fd := NewFileDiscovery(root)

	catalogs, err := fd.DiscoverFiles(FileTypeCatalog)
	require.NoError(t, err)
	require.Len(t, catalogs, 2)
	assert.Equal(t, "catalogs/b.yaml", catalogs[0].RelPath)
	assert.Equal(t, "catalogs/nested/a.yml", catalogs[1].RelPath)
	assert.Equal(t, FileTypeCatalog, catalogs[0].Type)
	assert.Equal(t, "categories: []", string(catalogs[0].Contents))

	weights, err := fd.DiscoverFiles(FileTypeWeights)
	require.NoError(t, err)
	require.Len(t, weights, 1)
	assert.Equal(t, int64(len("categoryType: productos")), weights[0].Size)
}

func TestDiscoverFilesMissingRoot(t *testing.T) {
	fd := NewFileDiscovery(filepath.Join(t.TempDir(), "absent"))
	files, err := fd.DiscoverFiles(FileTypeCatalog)
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = NewFileDiscovery("").DiscoverFiles(FileTypeCatalog)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverFilesUnknownType(t *testing.T) {
	_, err := NewFileDiscovery(t.TempDir()).DiscoverFiles(FileTypeUnknown)
	assert.Error(t, err)
}
