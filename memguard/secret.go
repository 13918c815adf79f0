// Package memguard implements memguard backed secrets.
//
// Unlike the borrowing Guard in the parent package, a Secret created here
// owns its storage: the data lives in dedicated locked pages that are kept
// inaccessible at rest, made readable only inside WithBytes and
// WithBytesFunc, and wiped when the secret is closed.
package memguard

import (
	"io"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/oblique/seckey"
	"github.com/oblique/seckey/internal/memlock"
	"github.com/oblique/seckey/internal/secrets"
)

// AllocTimer is used to record the time taken to allocate a secret.
var AllocTimer = metrics.GetOrRegisterTimer("secret.memguard.alloctimer", nil)

type secretError string

func (e secretError) Error() string {
	return string(e)
}

const (
	secretCreateErr secretError = "memguard buffer creation failed"
	secretClosedErr secretError = "secret has already been destroyed"
)

// secret stores sensitive data in protected page(s) of memory. Always call
// Close after use to avoid memory leaks.
type secret struct {
	buffer        *memguard.LockedBuffer
	mlk           memlock.Interface
	rw            *sync.RWMutex
	c             *sync.Cond
	closing       bool
	accessCounter int
}

// WithBytes makes the underlying bytes readable and passes them to the
// function provided. A reference MUST not be kept to the bytes passed to the
// function as the underlying array will no longer be readable after the
// function exits.
func (s *secret) WithBytes(action func([]byte) error) (err error) {
	if err = s.access(); err != nil {
		return
	}

	defer func() {
		if err2 := s.release(); err2 != nil {
			if err == nil {
				err = err2
				return
			}

			err = errors.WithMessage(err, err2.Error())

			return
		}
	}()

	return action(s.buffer.Bytes())
}

// WithBytesFunc makes the underlying bytes readable and passes them to the
// function provided. A reference MUST not be kept to the bytes passed to the
// function as the underlying array will no longer be readable after the
// function exits.
func (s *secret) WithBytesFunc(action func([]byte) ([]byte, error)) (ret []byte, err error) {
	if err = s.access(); err != nil {
		return
	}

	defer func() {
		if err2 := s.release(); err2 != nil {
			if err == nil {
				err = err2
				return
			}

			err = errors.WithMessage(err, err2.Error())

			return
		}
	}()

	return action(s.buffer.Bytes())
}

// IsClosed returns true if the underlying data container has already been
// closed.
func (s *secret) IsClosed() bool {
	s.rw.RLock()
	defer s.rw.RUnlock()

	return !s.buffer.IsAlive()
}

// Close wipes and frees the data container. It waits for in-flight accessors
// to finish and is safe to call more than once.
func (s *secret) Close() error {
	s.rw.Lock()
	defer s.rw.Unlock()

	s.closing = true

	for {
		if !s.buffer.IsAlive() {
			return nil
		}

		if s.accessCounter == 0 {
			// Destroy wipes the pages before returning them. It panics
			// on failure rather than returning an error.
			s.buffer.Destroy()

			seckey.InUseCounter.Dec(1)

			return nil
		}

		s.c.Wait()
	}
}

// access sets the access protection of the data region's memory pages to
// read-only, if needed.
func (s *secret) access() error {
	s.rw.Lock()
	defer s.rw.Unlock()

	if s.closing || !s.buffer.IsAlive() {
		return errors.WithStack(secretClosedErr)
	}

	// Only set read access if we're the first one trying to access this
	// potentially-shared Secret.
	if s.accessCounter == 0 {
		if err := s.mlk.Protect(s.buffer.Inner(), memlock.ReadOnly()); err != nil {
			return errors.WithMessage(err, "unable to mark memory as read-only")
		}
	}
	s.accessCounter++

	return nil
}

// release sets the access protection of the data region's memory pages to
// none, if needed.
func (s *secret) release() error {
	s.rw.Lock()
	defer s.rw.Unlock()
	defer s.c.Broadcast()

	s.accessCounter--
	// Only set no access if we're the last one trying to access this
	// potentially-shared Secret.
	if s.accessCounter == 0 {
		if err := s.mlk.Protect(s.buffer.Inner(), memlock.NoAccess()); err != nil {
			return errors.WithMessage(err, "unable to mark memory as no-access")
		}
	}

	return nil
}

// NewReader returns a new io.Reader reading from s.
func (s *secret) NewReader() io.Reader {
	return secrets.NewReader(s)
}

// SecretFactory is used to create memguard-based Secret implementations.
type SecretFactory struct {
	mlk memlock.Interface
}

func (f *SecretFactory) memlock() memlock.Interface {
	if f.mlk == nil {
		f.mlk = memlock.Default
	}

	return f.mlk
}

// New takes in a byte slice and returns a memguard-backed Secret containing
// that data. The input array is wiped once the data has been copied in.
func (f *SecretFactory) New(b []byte) (seckey.Secret, error) {
	defer AllocTimer.UpdateSince(time.Now())

	lb := memguard.NewBufferFromBytes(b)

	return f.newFromBuffer(lb)
}

func (f *SecretFactory) newFromBuffer(lb *memguard.LockedBuffer) (*secret, error) {
	if !lb.IsAlive() {
		return nil, errors.WithStack(secretCreateErr)
	}

	// The pages stay inaccessible whenever no accessor is inside WithBytes.
	if err := f.memlock().Protect(lb.Inner(), memlock.NoAccess()); err != nil {
		// Shouldn't happen, but free up the resources if it does. Destroy
		// handles its own unlocking and never fails silently.
		lb.Destroy()

		return nil, errors.WithMessage(err, "unable to mark memory as no-access")
	}

	seckey.AllocCounter.Inc(1)
	seckey.InUseCounter.Inc(1)

	rw := new(sync.RWMutex)

	return &secret{
		rw:     rw,
		c:      sync.NewCond(rw),
		mlk:    f.memlock(),
		buffer: lb,
	}, nil
}
