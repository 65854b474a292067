package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FileType identifies what a discovered data file contains.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCatalog
	FileTypeWeights
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeCatalog:
		return "catalog"
	case FileTypeWeights:
		return "weights"
	default:
		return "unknown"
	}
}

// FileTypeEntry defines the discovery patterns for a file type.
type FileTypeEntry struct {
	Type     FileType
	Patterns []string
}

// DefaultFileTypes is the registry of data file types and their patterns,
// relative to the data directory.
var DefaultFileTypes = []FileTypeEntry{
	{Type: FileTypeCatalog, Patterns: []string{"catalogs/**/*.yaml", "catalogs/**/*.yml"}},
	{Type: FileTypeWeights, Patterns: []string{"weights/**/*.yaml", "weights/**/*.yml"}},
}

// File is a discovered data file.
type File struct {
	Path     string
	RelPath  string
	Size     int64
	Type     FileType
	Contents []byte
}

// FileDiscovery walks a data directory.
type FileDiscovery struct {
	rootPath string
}

// NewFileDiscovery creates a FileDiscovery rooted at rootPath.
func NewFileDiscovery(rootPath string) *FileDiscovery {
	return &FileDiscovery{rootPath: rootPath}
}

// DiscoverFiles finds all data files of the given type, sorted by relative
// path so later files deterministically override earlier ones.
func (fd *FileDiscovery) DiscoverFiles(ft FileType) ([]File, error) {
	for _, entry := range DefaultFileTypes {
		if entry.Type == ft {
			return fd.findFilesByPattern(entry.Patterns, ft)
		}
	}
	return nil, fmt.Errorf("no discovery patterns for %s files", ft)
}

func (fd *FileDiscovery) findFilesByPattern(patterns []string, ft FileType) ([]File, error) {
	if fd.rootPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(fd.rootPath); os.IsNotExist(err) {
		return nil, nil
	}

	seen := make(map[string]bool)
	var files []File
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(os.DirFS(fd.rootPath), pattern)
		if err != nil {
			return nil, fmt.Errorf("error evaluating pattern %s: %w", pattern, err)
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			f, ok, err := fd.processMatch(match, ft)
			if err != nil {
				return nil, err
			}
			if ok {
				files = append(files, f)
			}
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func (fd *FileDiscovery) processMatch(match string, ft FileType) (File, bool, error) {
	fullPath := filepath.Join(fd.rootPath, match)

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return File{}, false, nil
	}

	contents, err := os.ReadFile(fullPath)
	if err != nil {
		return File{}, false, fmt.Errorf("read %s: %w", fullPath, err)
	}

	return File{
		Path:     fullPath,
		RelPath:  match,
		Size:     info.Size(),
		Type:     ft,
		Contents: contents,
	}, true, nil
}
