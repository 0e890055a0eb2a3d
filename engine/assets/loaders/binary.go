package loaders

import (
	"os"

	"github.com/cockroachdb/errors"
)

// BinaryLoader reads a file as little endian 32 bit words.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string) (interface{}, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(buf)%4 != 0 {
		return nil, errors.Newf("%s: size %d is not a multiple of 4", path, len(buf))
	}
	return bytesToBytecode(buf), nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
