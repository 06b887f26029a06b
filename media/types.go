// media/types.go
package media

type AssetType string

const (
	AssetTypePhoto   AssetType = "photo"
	AssetTypeUnknown AssetType = "unknown"
)

// PhotoOptions controls how uploaded photos are normalized before storage.
type PhotoOptions struct {
	MaxSize int // longest side in pixels, smaller images are kept as is
	Quality int // jpeg quality
}
