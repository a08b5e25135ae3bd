package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Matrix is a dense real matrix read from a MATLAB v4 file. Data is stored
// column-major, as on disk.
type Matrix struct {
	Name string
	Rows int
	Cols int
	Data []float64
}

// At returns the element at row r, column c.
func (m *Matrix) At(r, c int) float64 {
	return m.Data[c*m.Rows+r]
}

// Row copies row r.
func (m *Matrix) Row(r int) []float64 {
	out := make([]float64, m.Cols)
	for c := 0; c < m.Cols; c++ {
		out[c] = m.At(r, c)
	}
	return out
}

// MATLAB v4 header: type, mrows, ncols, imagf, namlen as int32.
const matHeaderLen = 5 * 4

// ReadMatrix decodes the first matrix of a MATLAB v4 stream. Only full,
// real, double precision matrices are supported, which is what PhysiCell
// writes.
func ReadMatrix(r io.Reader) (*Matrix, error) {
	head := make([]byte, matHeaderLen)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("failed to read mat header: %w", err)
	}

	// The thousands digit of the type field selects the byte order. A
	// little-endian reading of a big-endian file yields a huge value, so
	// try little first and fall back.
	var order binary.ByteOrder = binary.LittleEndian
	typ := int32(order.Uint32(head[0:4]))
	if typ < 0 || typ > 4052 {
		order = binary.BigEndian
		typ = int32(order.Uint32(head[0:4]))
	}
	machine, prec, kind := typ/1000, (typ/10)%10, typ%10
	switch {
	case machine == 0 && order != binary.LittleEndian,
		machine == 1 && order != binary.BigEndian:
		return nil, fmt.Errorf("mat type %d does not match detected byte order", typ)
	case machine > 1:
		return nil, fmt.Errorf("unsupported mat machine format %d", machine)
	case prec != 0:
		return nil, fmt.Errorf("unsupported mat precision %d, only double is supported", prec)
	case kind != 0:
		return nil, fmt.Errorf("unsupported mat matrix kind %d, only full matrices are supported", kind)
	}

	rows := int(int32(order.Uint32(head[4:8])))
	cols := int(int32(order.Uint32(head[8:12])))
	imag := int32(order.Uint32(head[12:16]))
	nameLen := int(int32(order.Uint32(head[16:20])))
	if rows < 0 || cols < 0 || nameLen < 0 {
		return nil, errors.New("corrupt mat header: negative dimension")
	}
	if imag != 0 {
		return nil, errors.New("complex mat matrices are not supported")
	}

	if cols != 0 && rows > math.MaxInt/8/cols {
		return nil, fmt.Errorf("corrupt mat header: %dx%d matrix is too large", rows, cols)
	}
	n := rows * cols
	if left, ok := bytesLeft(r); ok && int64(nameLen)+int64(n)*8 > left {
		return nil, fmt.Errorf("corrupt mat header: %dx%d matrix needs more than the %d bytes left in the file", rows, cols, left)
	}

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("failed to read mat name: %w", err)
	}

	data, err := readDoubles(r, order, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read %dx%d mat data: %w", rows, cols, err)
	}

	return &Matrix{
		Name: string(bytes.TrimRight(name, "\x00")),
		Rows: rows,
		Cols: cols,
		Data: data,
	}, nil
}

// bytesLeft reports how many unread bytes remain when r is a regular file.
func bytesLeft(r io.Reader) (int64, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	return info.Size() - pos, true
}

const readChunk = 4096

// readDoubles reads n values in chunks so a short stream fails before the
// full slice is allocated.
func readDoubles(r io.Reader, order binary.ByteOrder, n int) ([]float64, error) {
	data := make([]float64, 0, min(n, readChunk))
	raw := make([]byte, readChunk*8)
	for len(data) < n {
		k := min(n-len(data), readChunk)
		if _, err := io.ReadFull(r, raw[:k*8]); err != nil {
			return nil, err
		}
		for i := 0; i < k; i++ {
			data = append(data, math.Float64frombits(order.Uint64(raw[i*8:])))
		}
	}
	return data, nil
}

// ReadMatrixFile opens path and decodes its first matrix.
func ReadMatrixFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteMatrix encodes m as a little-endian MATLAB v4 double matrix.
func WriteMatrix(w io.Writer, m *Matrix) error {
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("matrix %s has %d values for %dx%d", m.Name, len(m.Data), m.Rows, m.Cols)
	}
	name := append([]byte(m.Name), 0)
	head := []int32{0, int32(m.Rows), int32(m.Cols), 0, int32(len(name))}
	if err := binary.Write(w, binary.LittleEndian, head); err != nil {
		return err
	}
	if _, err := w.Write(name); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Data)
}
