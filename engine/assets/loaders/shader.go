package loaders

import (
	"os"

	"github.com/cockroachdb/errors"
)

// ShaderLoader reads compiled SPIR-V produced by glslc.
type ShaderLoader struct{}

func (ShaderLoader) Load(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading shader %s", path)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("shader %s is not valid SPIR-V: %d bytes", path, len(code))
	}
	return code, nil
}
