// Package serialize provides the little-endian binary primitives used to
// persist tidal models and mesh indices.
//
// Writer and Reader keep the first error they encounter; every subsequent call
// becomes a no-op, so callers can chain reads and check Err once.
package serialize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxLength bounds any length prefix read from a stream.
const MaxLength = 1 << 40

// ErrLength is returned when a length prefix is negative or implausibly large.
var ErrLength = errors.New("invalid length prefix")

// Writer appends binary values to an in-memory buffer.
type Writer struct {
	buf bytes.Buffer
	err error
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) write(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(&w.buf, binary.LittleEndian, v)
}

// Uint8 writes a single byte.
func (w *Writer) Uint8(v uint8) { w.write(v) }

// Int32 writes a 32-bit signed integer.
func (w *Writer) Int32(v int32) { w.write(v) }

// Int64 writes a 64-bit signed integer.
func (w *Writer) Int64(v int64) { w.write(v) }

// Float32 writes a 32-bit float.
func (w *Writer) Float32(v float32) { w.write(math.Float32bits(v)) }

// Float64 writes a 64-bit float.
func (w *Writer) Float64(v float64) { w.write(math.Float64bits(v)) }

// Int32s writes a slice of 32-bit integers without a length prefix.
func (w *Writer) Int32s(v []int32) { w.write(v) }

// Float64s writes a slice of 64-bit floats without a length prefix.
func (w *Writer) Float64s(v []float64) { w.write(v) }

// Blob writes a length-prefixed byte slice.
func (w *Writer) Blob(v []byte) {
	w.Int64(int64(len(v)))
	if w.err != nil {
		return
	}
	_, w.err = w.buf.Write(v)
}

// Text writes a length-prefixed string.
func (w *Writer) Text(v string) {
	w.Blob([]byte(v))
}

// Reader decodes binary values from a byte slice.
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader creates a reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return r.r.Len()
}

func (r *Reader) read(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() uint8 {
	var v uint8
	r.read(&v)
	return v
}

// Int32 reads a 32-bit signed integer.
func (r *Reader) Int32() int32 {
	var v int32
	r.read(&v)
	return v
}

// Int64 reads a 64-bit signed integer.
func (r *Reader) Int64() int64 {
	var v int64
	r.read(&v)
	return v
}

// Float32 reads a 32-bit float.
func (r *Reader) Float32() float32 {
	var v uint32
	r.read(&v)
	return math.Float32frombits(v)
}

// Float64 reads a 64-bit float.
func (r *Reader) Float64() float64 {
	var v uint64
	r.read(&v)
	return math.Float64frombits(v)
}

// Length reads a length prefix and checks it against the bytes left, given
// the encoded size of one element.
func (r *Reader) Length(elemSize int) int {
	n := r.Int64()
	if r.err != nil {
		return 0
	}
	if n < 0 || n > MaxLength || (elemSize > 0 && n*int64(elemSize) > int64(r.r.Len())) {
		r.err = fmt.Errorf("%w: %d", ErrLength, n)
		return 0
	}
	return int(n)
}

// Int32s reads n 32-bit integers.
func (r *Reader) Int32s(n int) []int32 {
	if r.err != nil {
		return nil
	}
	if int64(n)*4 > int64(r.r.Len()) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	v := make([]int32, n)
	r.read(v)
	return v
}

// Float64s reads n 64-bit floats.
func (r *Reader) Float64s(n int) []float64 {
	if r.err != nil {
		return nil
	}
	if int64(n)*8 > int64(r.r.Len()) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	v := make([]float64, n)
	r.read(v)
	return v
}

// Blob reads a length-prefixed byte slice.
func (r *Reader) Blob() []byte {
	n := r.Length(1)
	if r.err != nil {
		return nil
	}
	v := make([]byte, n)
	if _, err := io.ReadFull(r.r, v); err != nil {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	return v
}

// Text reads a length-prefixed string.
func (r *Reader) Text() string {
	return string(r.Blob())
}
