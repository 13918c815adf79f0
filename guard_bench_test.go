package seckey

import "testing"

// The equality and ordering benchmarks come in pairs: operands differing in
// the first byte and operands differing in the last. Comparable ns/op across
// a pair is the observable shape of the constant-time guarantee; an early-out
// comparison would finish the first-byte case in a fraction of the time.

func benchGuard(size int) (*Guard, []byte, []byte, []byte) {
	base := genBytes(size, 0x08)

	equal := genBytes(size, 0x08)

	diffFirst := genBytes(size, 0x08)
	diffFirst[0] = 0x01

	diffLast := genBytes(size, 0x08)
	diffLast[size-1] = 0x01

	return Wrap(base), equal, diffFirst, diffLast
}

func BenchmarkGuard_EqualBytes(b *testing.B) {
	g, equal, diffFirst, diffLast := benchGuard(4096)
	defer g.Close()

	b.Run("equal", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			g.EqualBytes(equal)
		}
	})

	b.Run("first byte differs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			g.EqualBytes(diffFirst)
		}
	})

	b.Run("last byte differs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			g.EqualBytes(diffLast)
		}
	})
}

func BenchmarkGuard_CompareBytes(b *testing.B) {
	g, equal, diffFirst, diffLast := benchGuard(4096)
	defer g.Close()

	b.Run("equal", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			g.CompareBytes(equal)
		}
	})

	b.Run("first byte differs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			g.CompareBytes(diffFirst)
		}
	})

	b.Run("last byte differs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			g.CompareBytes(diffLast)
		}
	})
}

func BenchmarkWrap(b *testing.B) {
	key := genBytes(keySize, 0x08)

	for i := 0; i < b.N; i++ {
		g := Wrap(key)
		g.Close()
	}
}
