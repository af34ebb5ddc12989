// Package lotusPackages reads the Packages.bin container and resolves
// records through their parent chains.
package lotusPackages

import (
	"fmt"
	"strings"

	"github.com/goopsie/lotusExtract/binreader"
	"github.com/zeebo/blake3"
)

const headerSize = 29

// smallest encodings, used to reject counts the remaining bytes cannot hold
const (
	minStructSize = 4 + 4             // empty name, unknown
	minRecordSize = 4 + 4 + 5 + 4 + 4 // base, name, reserved, parent, reserved
)

// StructDescriptor is an entry of the struct table. Not interpreted.
type StructDescriptor struct {
	Name    string
	Unknown int32
}

// RawRecord is one package as stored, before any inheritance.
type RawRecord struct {
	Path       string
	ParentPath string // empty when the record has no parent
	Blob       []byte
}

type Container struct {
	Header      [headerSize]byte // identity/hash, opaque
	Structs     []StructDescriptor
	Records     map[string]*RawRecord
	Order       []string // paths in decode order, duplicates included once per occurrence
	Fingerprint [32]byte // blake3 of the container bytes
}

// Decode parses a whole container. Any short read aborts the decode.
func Decode(b []byte) (*Container, error) {
	r := binreader.New(b)
	c := &Container{
		Records:     make(map[string]*RawRecord),
		Fingerprint: blake3.Sum256(b),
	}

	header, err := r.Read(headerSize)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	copy(c.Header[:], header)

	structCount, err := readCount(r, "struct")
	if err != nil {
		return nil, err
	}
	if err := fits(structCount, r.Len()/minStructSize, "struct"); err != nil {
		return nil, err
	}
	c.Structs = make([]StructDescriptor, 0, structCount)
	for i := 0; i < structCount; i++ {
		name, err := r.ReadPrefixedString()
		if err != nil {
			return nil, fmt.Errorf("reading struct %d name: %w", i, err)
		}
		unk, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading struct %d: %w", i, err)
		}
		c.Structs = append(c.Structs, StructDescriptor{Name: name, Unknown: unk})
	}

	chunkSize, err := readCount(r, "chunk region size")
	if err != nil {
		return nil, err
	}
	chunkRegion, err := r.Read(chunkSize)
	if err != nil {
		return nil, fmt.Errorf("reading chunk region: %w", err)
	}

	// the count lives in the outer stream, after the region
	chunkCount, err := readCount(r, "chunk")
	if err != nil {
		return nil, err
	}
	// every chunk holds at least its terminator, every record its prefixes
	if err := fits(chunkCount, len(chunkRegion), "chunk"); err != nil {
		return nil, err
	}
	if err := fits(chunkCount, r.Len()/minRecordSize, "record"); err != nil {
		return nil, err
	}

	chunks := binreader.New(chunkRegion)
	blobs := make([]string, chunkCount)
	for i := range blobs {
		blobs[i], err = chunks.ReadCString()
		if err != nil {
			return nil, fmt.Errorf("reading chunk %d: %w", i, err)
		}
	}

	c.Order = make([]string, 0, chunkCount)
	for i, blob := range blobs {
		rec, err := readRecord(r, blob)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		c.Records[rec.Path] = rec
		c.Order = append(c.Order, rec.Path)
	}

	return c, nil
}

func readRecord(r *binreader.Reader, blob string) (*RawRecord, error) {
	basePath, err := r.ReadPrefixedString()
	if err != nil {
		return nil, fmt.Errorf("base path: %w", err)
	}
	name, err := r.ReadPrefixedString()
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if _, err := r.Read(5); err != nil {
		return nil, fmt.Errorf("reserved: %w", err)
	}
	parentName, err := r.ReadPrefixedString()
	if err != nil {
		return nil, fmt.Errorf("parent name: %w", err)
	}
	if _, err := r.Read(4); err != nil { // always 0
		return nil, fmt.Errorf("reserved: %w", err)
	}

	rec := &RawRecord{
		Path: JoinPath(basePath, name),
		Blob: []byte(blob),
	}
	if parentName != "" {
		// parents are relative to the child's base, never independently absolute
		rec.ParentPath = JoinPath(basePath, parentName)
	}
	return rec, nil
}

func readCount(r *binreader.Reader, what string) (int, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return 0, fmt.Errorf("reading %s count: %w", what, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("reading %s count: %w: %d", what, binreader.ErrNegativeLength, n)
	}
	return int(n), nil
}

func fits(count, limit int, what string) error {
	if count > limit {
		return fmt.Errorf("%w: %d %s entries, room for at most %d", binreader.ErrOutOfData, count, what, limit)
	}
	return nil
}

// JoinPath joins like POSIX path joining without cleaning: an absolute
// name replaces base, otherwise exactly one '/' separates them.
func JoinPath(base, name string) string {
	switch {
	case strings.HasPrefix(name, "/"), base == "":
		return name
	case strings.HasSuffix(base, "/"):
		return base + name
	}
	return base + "/" + name
}
