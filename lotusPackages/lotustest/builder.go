// Package lotustest builds synthetic Packages.bin containers for tests.
package lotustest

import (
	"bytes"
	"encoding/binary"
)

// Entry is one record as the exporter lays it out: a base directory, a
// name within it, and a parent name relative to the same base.
type Entry struct {
	BasePath   string
	Name       string
	ParentName string
	Text       string
}

type Struct struct {
	Name    string
	Unknown int32
}

type Builder struct {
	Header  [29]byte
	Structs []Struct
	Entries []Entry
}

// Add appends a record and returns the builder for chaining.
func (b *Builder) Add(basePath, name, parentName, text string) *Builder {
	b.Entries = append(b.Entries, Entry{BasePath: basePath, Name: name, ParentName: parentName, Text: text})
	return b
}

// Bytes lays the container out exactly as the reader expects it.
func (b *Builder) Bytes() []byte {
	buf := new(bytes.Buffer)
	buf.Write(b.Header[:])

	writeInt32(buf, int32(len(b.Structs)))
	for _, s := range b.Structs {
		writeString(buf, s.Name)
		writeInt32(buf, s.Unknown)
	}

	region := new(bytes.Buffer)
	for _, e := range b.Entries {
		region.WriteString(e.Text)
		region.WriteByte(0)
	}
	writeInt32(buf, int32(region.Len()))
	buf.Write(region.Bytes())
	writeInt32(buf, int32(len(b.Entries)))

	for _, e := range b.Entries {
		writeString(buf, e.BasePath)
		writeString(buf, e.Name)
		buf.Write([]byte{1, 2, 3, 4, 5})
		writeString(buf, e.ParentName)
		buf.Write([]byte{0, 0, 0, 0})
	}
	return buf.Bytes()
}

func writeInt32(buf *bytes.Buffer, v int32) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

func writeString(buf *bytes.Buffer, s string) {
	writeInt32(buf, int32(len(s)))
	buf.WriteString(s)
}
