// Package export writes an extracted document to disk.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/DataDog/zstd"
	"github.com/goopsie/lotusExtract/atomicfile"
	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCBOR:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format: %q", s)
}

func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return Compression(s), nil
	case "":
		return CompressionNone, nil
	}
	return "", fmt.Errorf("unknown compression: %q", s)
}

type Options struct {
	Format      Format
	Compression Compression
}

var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error
	// sorted keys, smallest encodings: same document, same bytes
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("export: CBOR decoder initialization failed: " + err.Error())
	}
}

// Write encodes doc (plain maps, slices and scalars) to w.
func Write(w io.Writer, doc any, opts Options) error {
	var cw io.WriteCloser
	switch opts.Compression {
	case CompressionNone, "":
		cw = nopCloser{w}
	case CompressionZstd:
		cw = zstd.NewWriterLevel(w, zstd.DefaultCompression)
	case CompressionLZ4:
		cw = lz4.NewWriter(w)
	default:
		return fmt.Errorf("unknown compression: %q", opts.Compression)
	}

	if err := encode(cw, doc, opts.Format); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

func encode(w io.Writer, doc any, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "\t")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	case FormatCBOR:
		return cborEncMode.NewEncoder(w).Encode(doc)
	}
	return fmt.Errorf("unknown output format: %q", format)
}

// WriteFile writes doc to path, replacing it only once fully written.
func WriteFile(path string, doc any, opts Options) error {
	return atomicfile.Write(path, 0644, func(w io.Writer) error {
		return Write(w, doc, opts)
	})
}

// Read decodes what Write produced.
func Read(r io.Reader, opts Options) (map[string]any, error) {
	switch opts.Compression {
	case CompressionNone, "":
	case CompressionZstd:
		zr := zstd.NewReader(r)
		defer zr.Close()
		r = zr
	case CompressionLZ4:
		r = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("unknown compression: %q", opts.Compression)
	}

	var out map[string]any
	switch opts.Format {
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
	case FormatCBOR:
		if err := cborDecMode.NewDecoder(r).Decode(&out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown output format: %q", opts.Format)
	}
	return out, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
