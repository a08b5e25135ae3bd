package snapshot

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixRoundTrip(t *testing.T) {
	t.Parallel()

	in := &Matrix{Name: "cells", Rows: 2, Cols: 3, Data: []float64{1, 2, 3, 4, 5, 6}}
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, in))

	out, err := ReadMatrix(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, 3.0, out.At(0, 1))
	assert.Equal(t, []float64{2, 4, 6}, out.Row(1))
}

func TestReadMatrix_BigEndian(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	name := []byte("m\x00")
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []int32{1000, 1, 2, 0, int32(len(name))}))
	buf.Write(name)
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []float64{1.5, -2.5}))

	m, err := ReadMatrix(&buf)
	require.NoError(t, err)
	assert.Equal(t, "m", m.Name)
	assert.Equal(t, []float64{1.5, -2.5}, m.Data)
}

func TestReadMatrix_Unsupported(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		header []int32
	}{
		{name: "single precision", header: []int32{10, 1, 1, 0, 1}},
		{name: "sparse", header: []int32{2, 1, 1, 0, 1}},
		{name: "complex", header: []int32{0, 1, 1, 1, 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, tc.header))
			buf.Write(make([]byte, 64))
			_, err := ReadMatrix(&buf)
			assert.Error(t, err)
		})
	}
}

func TestReadMatrix_Truncated(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []int32{0, 4, 4, 0, 1}))
	buf.WriteByte(0)
	buf.Write(make([]byte, 8))

	_, err := ReadMatrix(&buf)
	assert.Error(t, err)
}

func TestReadMatrix_CorruptDimensions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		header []int32
	}{
		{name: "overflowing size", header: []int32{0, 0x7fffffff, 0x7fffffff, 0, 1}},
		{name: "larger than stream", header: []int32{0, 100000, 1000, 0, 1}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			var buf bytes.Buffer
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, tc.header))
			buf.WriteByte(0)
			buf.Write(make([]byte, 64))

			// Act
			_, err := ReadMatrix(&buf)

			// Assert
			assert.Error(t, err)
		})
	}
}

func TestReadMatrixFile_DimensionsExceedFile(t *testing.T) {
	t.Parallel()

	// Arrange
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []int32{0, 1000, 1000, 0, 1}))
	buf.WriteByte(0)
	buf.Write(make([]byte, 80))
	path := filepath.Join(t.TempDir(), "output00000000_cells.mat")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	// Act
	_, err := ReadMatrixFile(path)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bytes left in the file")
}
