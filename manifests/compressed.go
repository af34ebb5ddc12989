// Package manifests locates and unwraps the inputs an export needs: the
// Packages.bin container, the texture manifest and the codex index.
package manifests

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/DataDog/zstd"
)

// CompressedHeader prefixes zstd-wrapped dumps. All fields little endian.
type CompressedHeader struct {
	Magic            [4]byte // Z S T D
	HeaderSize       uint32
	UncompressedSize uint64
	CompressedSize   uint64
}

const compressionLevel = zstd.BestSpeed

var (
	headerMagic = [4]byte{0x5A, 0x53, 0x54, 0x44}
	frameMagic  = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

var ErrSizeMismatch = errors.New("compressed header does not match payload")

// ReadContainer reads a container from disk, unwrapping it if it is
// zstd compressed.
func ReadContainer(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unwrap(b)
}

// Unwrap returns b decompressed if it carries a CompressedHeader or is a
// bare zstd frame, and b unchanged otherwise.
func Unwrap(b []byte) ([]byte, error) {
	headerLen := binary.Size(CompressedHeader{})
	switch {
	case len(b) >= headerLen && bytes.Equal(b[:4], headerMagic[:]):
		compHeader := CompressedHeader{}
		if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &compHeader); err != nil {
			return nil, fmt.Errorf("reading compressed header: %w", err)
		}
		payload := b[headerLen:]
		if len(payload) != int(compHeader.CompressedSize) {
			return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrSizeMismatch, len(payload), compHeader.CompressedSize)
		}
		decomp, err := zstd.Decompress(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("decompressing container: %w", err)
		}
		if len(decomp) != int(compHeader.UncompressedSize) {
			return nil, fmt.Errorf("%w: decompressed to %d bytes, header says %d", ErrSizeMismatch, len(decomp), compHeader.UncompressedSize)
		}
		return decomp, nil
	case bytes.HasPrefix(b, frameMagic):
		decomp, err := zstd.Decompress(nil, b)
		if err != nil {
			return nil, fmt.Errorf("decompressing container: %w", err)
		}
		return decomp, nil
	}
	return b, nil
}

// WrapZSTD compresses b and prefixes it with a CompressedHeader.
func WrapZSTD(b []byte) ([]byte, error) {
	zstdBytes, err := zstd.CompressLevel(nil, b, compressionLevel)
	if err != nil {
		return nil, err
	}

	cHeader := CompressedHeader{
		headerMagic,
		uint32(binary.Size(CompressedHeader{})),
		uint64(len(b)),
		uint64(len(zstdBytes)),
	}

	fBuf := bytes.NewBuffer(nil)
	if err := binary.Write(fBuf, binary.LittleEndian, cHeader); err != nil {
		return nil, err
	}
	return append(fBuf.Bytes(), zstdBytes...), nil
}
