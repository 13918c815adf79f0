package seckey

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/oblique/seckey/internal/memlock"
	"github.com/oblique/seckey/internal/secrets"
	"github.com/oblique/seckey/log"
)

// WrapTimer is used to record the time taken to wrap and pin a value.
var WrapTimer = metrics.GetOrRegisterTimer("secret.guard.wraptimer", nil)

// LockFailures tracks pin requests refused by the platform. A refused pin
// leaves the guard fully usable but without the memory residency guarantee;
// see Wrap.
var LockFailures = metrics.GetOrRegisterCounter("secret.guard.lockfailures", nil)

type guardError string

func (e guardError) Error() string {
	return string(e)
}

const guardReleasedErr guardError = "guard has already been released"

// Guard mediates access to a byte region the caller owns, holding a sensitive
// fixed-size value such as a key or token. While the guard is live the region
// is pinned in physical memory so it cannot be written to swap, and the value
// can be compared in constant time against other values. Closing the guard
// releases the pin; the region itself remains the caller's to reuse or scrub.
//
// A Guard borrows its storage, so writes through Bytes and writes through the
// original slice are the same writes. It performs no internal locking: a
// guard belongs to one goroutine at a time, like a bytes.Buffer. The zero
// value is not usable; create guards with Wrap.
type Guard struct {
	data   []byte
	mlk    memlock.Interface
	locked bool
	closed uint32
	once   sync.Once

	// stack holds the stack captured at Wrap, only set if debugging is
	// enabled when the guard is created.
	stack []byte
}

// Wrap pins the memory backing b and returns a Guard mediating access to it.
//
// Pinning is best effort: platforms can refuse (RLIMIT_MEMLOCK, containers
// without IPC_LOCK), and a refusal leaves the guard usable with every other
// guarantee intact. Deployments that must not run without residency
// protection should check Locked after wrapping. Wrapping an empty slice
// pins nothing.
//
// The guard borrows b rather than copying it, so the caller must not move or
// free the backing array before Close.
func Wrap(b []byte) *Guard {
	return wrap(b, memlock.Default)
}

func wrap(b []byte, mlk memlock.Interface) *Guard {
	defer WrapTimer.UpdateSince(time.Now())

	g := &Guard{
		data: b,
		mlk:  mlk,
	}

	// Lock the memory via mlock (or platform equivalent) so it can't be
	// paged to disk. Only a successful pin is recorded; Close unpins only
	// what was pinned.
	if len(b) > 0 {
		if err := mlk.Lock(b); err != nil {
			LockFailures.Inc(1)
			log.Debugf("unable to pin guard memory: %v\n", err)
		} else {
			g.locked = true
		}
	}

	if log.DebugEnabled() {
		g.stack = debug.Stack()
	}

	AllocCounter.Inc(1)
	InUseCounter.Inc(1)

	// Backstop for guards discarded without Close: the pin must not outlive
	// the guard. Close makes the finalizer a no-op.
	runtime.SetFinalizer(g, (*Guard).finalize)

	return g
}

// Bytes returns the guarded region for reading and modifying in place. The
// slice is the caller's own storage, so changes made through it are
// immediately visible to subsequent reads and comparisons. Bytes returns nil
// once the guard has been closed.
func (g *Guard) Bytes() []byte {
	return g.data
}

// WithBytes makes the guarded region available to the provided function. It
// returns the error returned by the provided function, or an error if the
// guard has already been released.
func (g *Guard) WithBytes(action func([]byte) error) error {
	if g.IsClosed() {
		return errors.WithStack(guardReleasedErr)
	}

	return action(g.data)
}

// WithBytesFunc makes the guarded region available to the provided function.
// It returns the byte slice and error returned by the provided function, or
// an error if the guard has already been released.
func (g *Guard) WithBytesFunc(action func([]byte) ([]byte, error)) ([]byte, error) {
	if g.IsClosed() {
		return nil, errors.WithStack(guardReleasedErr)
	}

	return action(g.data)
}

// EqualBytes reports whether the guarded region and b hold identical bytes.
// The full operands are always scanned, so timing depends only on their
// lengths, never on where or whether they differ. Equality is over the raw
// in-memory representation: operands are equal exactly when their byte
// patterns are, whatever those bytes encode. A closed guard compares as
// empty.
func (g *Guard) EqualBytes(b []byte) bool {
	return g.mlk.Equal(g.data, b)
}

// Equal reports whether g and other hold identical bytes. See EqualBytes.
func (g *Guard) Equal(other *Guard) bool {
	return g.EqualBytes(other.data)
}

// CompareBytes orders the guarded region against b, returning -1, 0, or 1
// with the same semantics as bytes.Compare: lexicographic by byte value,
// length breaking ties between prefixes. Multi-byte integers therefore order
// by their in-memory representation, not their numeric value. Timing depends
// only on the operand lengths, and CompareBytes returns 0 exactly when
// EqualBytes returns true.
func (g *Guard) CompareBytes(b []byte) int {
	return g.mlk.Compare(g.data, b)
}

// Compare orders g against other. See CompareBytes.
func (g *Guard) Compare(other *Guard) int {
	return g.CompareBytes(other.data)
}

// Locked reports whether the memory residency pin is in effect. It returns
// false when the platform refused the pin at Wrap, when the guard wraps an
// empty slice, and after Close.
func (g *Guard) Locked() bool {
	return g.locked && !g.IsClosed()
}

// IsClosed returns true if the guard has already been released.
func (g *Guard) IsClosed() bool {
	return atomic.LoadUint32(&g.closed) == 1
}

// String implements fmt.Stringer. The representation carries only addresses,
// never the guarded bytes.
func (g *Guard) String() string {
	return fmt.Sprintf("Guard(%p){data(%p)}", g, g.data)
}

// Format implements fmt.Formatter, rendering every verb as the redacted
// String form. fmt consults Stringer only for %v, %s, %q, %x and %X; without
// this, %d and the other numeric verbs would print the struct fields, bytes
// included.
func (g *Guard) Format(f fmt.State, verb rune) {
	io.WriteString(f, g.String())
}

// NewReader returns a new io.Reader reading from the guarded region.
func (g *Guard) NewReader() io.Reader {
	return secrets.NewReader(g)
}

// Close releases the memory residency pin and detaches the guard from the
// caller's storage. Only the first call acts; later calls, including the
// finalizer backstop, are no-ops. Close never panics: a refused unpin is
// logged and absorbed, since by teardown there is nothing useful a caller
// could do with it.
func (g *Guard) Close() {
	g.once.Do(g.close)
}

func (g *Guard) close() {
	if g.locked {
		if err := g.mlk.Unlock(g.data); err != nil {
			log.Debugf("unable to unpin guard memory: %v\n", err)
		}
	}

	atomic.StoreUint32(&g.closed, 1)

	// Drop the borrow; the storage belongs to the caller.
	g.data = nil

	InUseCounter.Dec(1)
}

func (g *Guard) finalize() {
	if !g.IsClosed() {
		log.Debugf("guard finalized before close: %s\n%s\n", g, g.stack)
	}

	g.Close()
}
