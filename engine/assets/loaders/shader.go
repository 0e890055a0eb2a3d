package loaders

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/anima2d/engine/core"
)

const spirvMagic uint32 = 0x07230203

type ShaderLoader struct {
	binary BinaryLoader
}

func (sl *ShaderLoader) Load(path string) (interface{}, error) {
	return sl.LoadSPIRV(path)
}

// LoadSPIRV reads a compiled shader. A missing file is core.ErrShaderMissing.
func (sl *ShaderLoader) LoadSPIRV(path string) ([]uint32, error) {
	words, err := sl.binary.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "shader %s", path), core.ErrShaderMissing)
		}
		return nil, err
	}
	code := words.([]uint32)
	if len(code) == 0 || code[0] != spirvMagic {
		return nil, errors.Newf("%s is not SPIR-V", path)
	}
	return code, nil
}
