package assets

// AssetType is derived from the file extension.
type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeImage
	AssetTypeShader
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeImage:
		return "image"
	case AssetTypeShader:
		return "shader"
	default:
		return "none"
	}
}

type Loader interface {
	Load(path string) (interface{}, error)
}
