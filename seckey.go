package seckey

import (
	"io"

	// NOTE: core's init disables core dumps. If this import is ever dropped, an
	// init func calling memcall.DisableCoreDumps is needed in its place.
	"github.com/awnumar/memguard/core"
	"github.com/rcrowley/go-metrics"

	"github.com/oblique/seckey/internal/memlock"
)

var (
	// AllocCounter is used to track secret allocations.
	//
	// AllocCounter increases as guards and secrets are created but, unlike
	// InUseCounter, it does not decrease as they are closed.
	AllocCounter = metrics.GetOrRegisterCounter("secret.allocated", nil)

	// InUseCounter is used to track the number of guards and secrets
	// currently live.
	InUseCounter = metrics.GetOrRegisterCounter("secret.inuse", nil)
)

// Secret is an owning container for sensitive data, as opposed to a Guard,
// which borrows storage the caller owns. Access to the data is scoped to the
// provided functions. Always call Close once the secret is no longer needed.
type Secret interface {
	// WithBytes makes the underlying byte slice available to the provided
	// function. It returns the error returned by the provided function, or
	// an error if the secret has already been closed. The byte slice must
	// not be retained after the function returns.
	WithBytes(action func([]byte) error) error

	// WithBytesFunc makes the underlying byte slice available to the
	// provided function. It returns the byte slice and error returned by
	// the provided function, or an error if the secret has already been
	// closed. The underlying byte slice must not be retained after the
	// function returns.
	WithBytesFunc(action func([]byte) ([]byte, error)) ([]byte, error)

	// IsClosed returns true if the secret has already been closed.
	IsClosed() bool

	// Close closes the secret, wiping and releasing its storage.
	Close() error

	// NewReader returns a new io.Reader reading from the secret.
	NewReader() io.Reader
}

// SecretFactory is the interface for creating specific implementations of a
// Secret.
type SecretFactory interface {
	// New takes in a byte slice and returns a Secret containing that data.
	New(b []byte) (Secret, error)
}

// Equal reports whether a and b hold identical bytes, comparing in time that
// depends only on their lengths. It returns an error if either secret has
// already been closed.
func Equal(a, b Secret) (eq bool, err error) {
	err = a.WithBytes(func(ab []byte) error {
		return b.WithBytes(func(bb []byte) error {
			eq = memlock.Equal(ab, bb)
			return nil
		})
	})

	return eq, err
}

// Compare orders a against b, returning -1, 0, or 1 with the same semantics
// as bytes.Compare. Like Equal, it runs in time that depends only on the
// operand lengths, and Compare returns 0 exactly when Equal returns true. It
// returns an error if either secret has already been closed.
func Compare(a, b Secret) (order int, err error) {
	err = a.WithBytes(func(ab []byte) error {
		return b.WithBytes(func(bb []byte) error {
			order = memlock.Compare(ab, bb)
			return nil
		})
	})

	return order, err
}

// Wipe overwrites b with zeroes. Callers that want borrowed storage scrubbed
// after use can apply it to a slice once its guard is closed; the owning
// Secret implementations wipe their storage on Close without help.
func Wipe(b []byte) {
	core.Wipe(b)
}
