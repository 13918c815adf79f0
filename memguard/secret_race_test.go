//go:build race_tests
// +build race_tests

package memguard

import (
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oblique/seckey"
)

func BenchmarkMemguardSecret_WithBytesConcurrentClose(b *testing.B) {
	orig := []byte("thisismy32bytesecretthatiwilluse")
	copyBytes := make([]byte, len(orig))
	copy(copyBytes, orig)

	runRaceTest(b, orig, func(s seckey.Secret) {
		err := s.WithBytes(func(bytes []byte) error {
			assert.Equal(b, copyBytes, bytes)
			return nil
		})
		if err != nil {
			assert.EqualError(b, err, "secret has already been destroyed")
		}
	})
}

func BenchmarkMemguardSecret_ReaderConcurrentClose(b *testing.B) {
	orig := []byte("thisismy32bytesecretthatiwilluse")
	copyBytes := make([]byte, len(orig))
	copy(copyBytes, orig)

	runRaceTest(b, orig, func(s seckey.Secret) {
		r := s.NewReader()

		bytes, err := io.ReadAll(r)
		if err != nil {
			assert.EqualError(b, err, "secret has already been destroyed")
		} else {
			assert.Equal(b, copyBytes, bytes)
		}
	})
}

func runRaceTest(b *testing.B, secretBytes []byte, testFunc func(s seckey.Secret)) {
	s, err := factory.New(secretBytes)
	if assert.NoError(b, err) {
		defer s.Close()

		ready := make(chan bool)
		done := make(chan bool)

		go func(ch chan bool) {
			count := 0

			for {
				select {
				case <-ch:
					count++
				case <-done:
					return
				}

				if count >= runtime.GOMAXPROCS(0)/2 {
					assert.NoError(b, s.Close())
				}
			}
		}(ready)

		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			ready <- true

			for pb.Next() {
				testFunc(s)
			}
		})

		close(done)
		assert.True(b, s.IsClosed())
	}
}
