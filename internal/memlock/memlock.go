package memlock

import "github.com/awnumar/memcall"

type Locker interface {
	Lock([]byte) error
}

type Unlocker interface {
	Unlock([]byte) error
}

type Protector interface {
	Protect([]byte, MemoryProtectionFlag) error
}

// Comparer compares byte regions in time independent of their contents.
type Comparer interface {
	Equal(a, b []byte) bool
	Compare(a, b []byte) int
}

// Interface provides an interface for wrapping the memory locking and
// constant-time comparison primitives this library depends on.
type Interface interface {
	Locker
	Unlocker
	Protector
	Comparer
}

// wrapper implements Interface
type wrapper struct {
}

// Default is a default implementation of Interface. Locking and protection
// directly wrap functions exported by the memcall package; comparisons use the
// constant-time functions in this package.
var Default Interface = &wrapper{}

func (*wrapper) Lock(b []byte) error {
	return memcall.Lock(b)
}

func (*wrapper) Unlock(b []byte) error {
	return memcall.Unlock(b)
}

func (*wrapper) Protect(b []byte, mpf MemoryProtectionFlag) error {
	return memcall.Protect(b, mpf)
}

func (*wrapper) Equal(a, b []byte) bool {
	return Equal(a, b)
}

func (*wrapper) Compare(a, b []byte) int {
	return Compare(a, b)
}
