//go:build !unix

package runtimepath

import "errors"

var ErrLocked = errors.New("another daemon is already running for this vault")

// Lock is a no-op where advisory file locks are unavailable.
func Lock(vault string) (func(), error) {
	return func() {}, nil
}
