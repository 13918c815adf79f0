// Package secrets contains support code shared by the secret holders in this
// library.
package secrets

// BytesWrapper is implemented by holders able to expose their protected bytes
// to a scoped action.
type BytesWrapper interface {
	// WithBytes makes the underlying byte slice available to the provided
	// function. The slice must not be retained after action returns.
	WithBytes(action func([]byte) error) (err error)
}
