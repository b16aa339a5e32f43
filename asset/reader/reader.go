package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glintrt/glint/asset"
	"github.com/glintrt/glint/scene"
)

// The Reader interface is implemented by all scene format readers.
type Reader interface {
	// Read a scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read a scene from a local path or URL. The reader is selected from the
// file extension.
func ReadScene(scenePath string) (*scene.Scene, error) {
	res, err := asset.NewResource(scenePath, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	ext := strings.ToLower(filepath.Ext(res.Path()))
	switch ext {
	case ".obj":
		return newWavefrontReader().Read(res)
	default:
		return nil, fmt.Errorf("reader: unsupported scene format %q", ext)
	}
}
