package secrets

import "io"

// Reader implements io.Reader over a BytesWrapper, exposing the protected
// bytes piecemeal rather than copying them out in full.
type Reader struct {
	src BytesWrapper
	off int
}

// Read implements the io.Reader interface. Each call accesses the underlying
// bytes only for the duration of the copy.
func (r *Reader) Read(p []byte) (n int, err error) {
	err = r.src.WithBytes(func(b []byte) error {
		if r.off >= len(b) {
			return io.EOF
		}

		n = copy(p, b[r.off:])
		r.off += n

		if r.off >= len(b) {
			return io.EOF
		}

		return nil
	})

	return n, err
}

// NewReader returns a new Reader reading from src.
func NewReader(src BytesWrapper) *Reader {
	return &Reader{src: src}
}
