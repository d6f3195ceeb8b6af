package blob

// CountedBufReader wraps a blob and counts how many bytes have been read from
// its beginning. Bytes only become visible through Accumulator after they have
// been moved there by Advance.
//
// There is deliberately no io.Reader, io.Seeker or Bytes method on the unread
// part: a prover must never be able to reach blob data it has not consumed.
type CountedBufReader struct {
	// unread part of the blob
	inner []byte
	// bytes moved out of inner, in order
	accumulator []byte
}

// NewCountedBufReader takes its own copy of data.
func NewCountedBufReader(data []byte) *CountedBufReader {
	inner := make([]byte, len(data))
	copy(inner, data)
	return &CountedBufReader{
		inner:       inner,
		accumulator: make([]byte, 0, len(data)),
	}
}

// Advance moves numBytes from the unread part into the accumulator. Requests
// past the end are clamped, so a large value reads everything that is left.
func (r *CountedBufReader) Advance(numBytes int) {
	if numBytes <= 0 || len(r.inner) == 0 {
		return
	}
	n := min(numBytes, len(r.inner))
	r.accumulator = append(r.accumulator, r.inner[:n]...)
	r.inner = r.inner[n:]
}

// Accumulator returns a copy of the bytes read so far.
func (r *CountedBufReader) Accumulator() []byte {
	out := make([]byte, len(r.accumulator))
	copy(out, r.accumulator)
	return out
}

// Consumed is the number of bytes moved into the accumulator.
func (r *CountedBufReader) Consumed() int {
	return len(r.accumulator)
}

// Remaining is the number of unread bytes. Only the count is exposed.
func (r *CountedBufReader) Remaining() int {
	return len(r.inner)
}

// TotalLen is the length already read plus the length remaining.
func (r *CountedBufReader) TotalLen() int {
	return len(r.accumulator) + len(r.inner)
}
