package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrAssetNotFound is returned by Get when no asset exists at the path.
var ErrAssetNotFound = errors.New("asset not found")

// Store defines the interface for saving, retrieving, and deleting media assets
type Store interface {
	// Save stores data under filename within the asset type's directory and
	// returns the relative path used to reference it later
	Save(assetType AssetType, filename string, data io.Reader) (string, error)
	// Get retrieves a reader for an asset
	Get(relativePath string) (io.ReadCloser, error)
	// Delete removes an asset, a missing asset is not an error
	Delete(relativePath string) error
	// URL returns the address the asset is served from
	URL(relativePath string) string
}

// LocalStorage implements the Store interface using the local filesystem
type LocalStorage struct {
	basePath        string               // absolute path to the MEDIA_STORAGE_PATH
	baseURL         string               // URL prefix assets are served under, ends with "/"
	subDirMap       map[AssetType]string // maps AssetType to subdirectory name (e.g., "photos")
	resolvedPathMap map[AssetType]string // maps AssetType to full absolute path
	log             zerolog.Logger
}

var _ Store = (*LocalStorage)(nil)

// NewLocalStorage creates a new local filesystem store
func NewLocalStorage(basePath string, subDirs map[AssetType]string, baseURL string, log zerolog.Logger) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	resolvedPaths := make(map[AssetType]string)
	for assetType, subDir := range subDirs {
		fullPath := filepath.Join(absBasePath, subDir)
		if !isWithin(fullPath, absBasePath) {
			return nil, fmt.Errorf("invalid subdirectory configuration: '%s' resolves outside base path '%s'", subDir, absBasePath)
		}
		resolvedPaths[assetType] = fullPath
	}

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	log = log.With().Str("component", "media.store").Logger()
	log.Info().Str("path", absBasePath).Msg("initialized local storage")
	return &LocalStorage{
		basePath:        absBasePath,
		baseURL:         baseURL,
		subDirMap:       subDirs,
		resolvedPathMap: resolvedPaths,
		log:             log,
	}, nil
}

// BasePath returns the absolute storage root.
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// getAssetTypeDir resolves the absolute path for a given asset type
func (ls *LocalStorage) getAssetTypeDir(assetType AssetType) (string, error) {
	dirPath, ok := ls.resolvedPathMap[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' is not configured", assetType)
	}
	return dirPath, nil
}

// EnsureDir creates the directory for the asset type if it doesn't exist
func (ls *LocalStorage) EnsureDir(assetType AssetType) (string, error) {
	dirPath, err := ls.getAssetTypeDir(assetType)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory '%s': %w", dirPath, err)
	}
	return dirPath, nil
}

// Save writes data to <asset dir>/<filename>. The data goes to a temporary
// file first and is renamed into place, so readers never see a partial photo.
func (ls *LocalStorage) Save(assetType AssetType, filename string, data io.Reader) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid filename '%s' for LocalStorage.Save", filename)
	}
	dir, err := ls.EnsureDir(assetType)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file in '%s': %w", dir, err)
	}
	tmpName := tmp.Name()
	_, copyErr := io.Copy(tmp, data)
	if err := errors.Join(copyErr, tmp.Close()); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write asset '%s': %w", filename, err)
	}

	target := filepath.Join(dir, filename)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move asset into place at '%s': %w", target, err)
	}

	rel, err := filepath.Rel(ls.basePath, target)
	if err != nil {
		return "", fmt.Errorf("internal error calculating relative path: %w", err)
	}
	ls.log.Debug().Str("path", target).Msg("saved asset")
	return filepath.ToSlash(rel), nil
}

func (ls *LocalStorage) Get(relativePath string) (io.ReadCloser, error) {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at '%s'", ErrAssetNotFound, relativePath)
		}
		return nil, fmt.Errorf("failed to open asset '%s': %w", relativePath, err)
	}
	return file, nil
}

// Delete removes an asset file
func (ls *LocalStorage) Delete(relativePath string) error {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset '%s': %w", relativePath, err)
	}
	if err == nil {
		ls.log.Debug().Str("path", fullPath).Msg("deleted asset")
	}
	return nil
}

// URL joins the public prefix and the relative path.
func (ls *LocalStorage) URL(relativePath string) string {
	return ls.baseURL + strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(relativePath)), "/")
}

// GetFullPath calculates the absolute path and performs security check
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	if relativePath == "" {
		return "", fmt.Errorf("invalid path: empty asset path")
	}
	// clean the relative path first to prevent simple traversal tricks
	cleanRelativePath := filepath.Clean(relativePath)

	absFullPath, err := filepath.Abs(filepath.Join(ls.basePath, cleanRelativePath))
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", relativePath, err)
	}

	if !isWithin(absFullPath, ls.basePath) || absFullPath == ls.basePath {
		return "", fmt.Errorf("invalid path: access denied for '%s'", relativePath)
	}

	return absFullPath, nil
}

// isWithin reports whether p is base or a descendant of it.
func isWithin(p, base string) bool {
	rel, err := filepath.Rel(base, filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
