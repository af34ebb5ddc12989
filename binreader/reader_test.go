package binreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInt32LittleEndian(t *testing.T) {
	r := New([]byte{0x01, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff})

	v, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	v, err = r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
	assert.Equal(t, 8, r.Offset())
	assert.Equal(t, 0, r.Len())
}

func TestReadPastEnd(t *testing.T) {
	r := New([]byte{1, 2, 3})

	_, err := r.ReadInt32()
	require.ErrorIs(t, err, ErrOutOfData)
	assert.Equal(t, 0, r.Offset(), "failed read must not advance")

	b, err := r.Read(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	_, err = r.Read(1)
	assert.ErrorIs(t, err, ErrOutOfData)
}

func TestReadPrefixedString(t *testing.T) {
	r := New([]byte{5, 0, 0, 0, 'L', 'o', 't', 'u', 's', 0xfe, 0xff, 0xff, 0xff})

	s, err := r.ReadPrefixedString()
	require.NoError(t, err)
	assert.Equal(t, "Lotus", s)

	_, err = r.ReadPrefixedString()
	assert.ErrorIs(t, err, ErrNegativeLength)
}

func TestReadCString(t *testing.T) {
	r := New([]byte("first\x00\x00third\x00tail"))

	tests := []string{"first", "", "third"}
	for _, want := range tests {
		got, err := r.ReadCString()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := r.ReadCString()
	require.ErrorIs(t, err, ErrOutOfData)
	assert.Equal(t, 4, r.Len())
}
