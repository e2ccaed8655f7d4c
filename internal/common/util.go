package common

import "fmt"

// WipeByteArray overwrites b with zeros. Used for plaintext passwords read
// from the terminal.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// StorageError wraps a persistence failure so that it matches
// ErrStorageUnavailable while keeping the cause in the message.
func StorageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
