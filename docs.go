/*
Package seckey guards sensitive fixed-size values such as cryptographic keys
and API tokens while they are held in memory.

A Guard wraps a byte slice the caller already owns. For the lifetime of the
guard the backing memory is pinned so it cannot be written to swap, and the
value can be compared against other values in constant time, for both equality
and ordering. Closing the guard releases the pin exactly once, no matter how
many times it is closed, and a finalizer backstop releases it if a guard is
reclaimed by the garbage collector before being closed.

	key := fetchKeyMaterial()

	guard := seckey.Wrap(key)
	defer guard.Close()

	if guard.EqualBytes(candidate) {
		// candidate matches the guarded key
	}

Printing a guard with the fmt verbs never reveals the guarded bytes; the
representation carries addresses only.

The memguard subpackage provides an owning Secret container for callers that
want the library to allocate, protect and wipe the storage itself rather than
borrow it.
*/
package seckey
