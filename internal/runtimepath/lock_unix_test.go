//go:build unix

package runtimepath

import (
	"errors"
	"testing"
)

func TestLock_Exclusive(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	release, err := Lock("Notes")
	if err != nil {
		t.Fatalf("Lock() error: %v", err)
	}
	if _, err := Lock("Notes"); !errors.Is(err, ErrLocked) {
		release()
		t.Fatalf("second Lock() = %v, want ErrLocked", err)
	}
	release()

	again, err := Lock("Notes")
	if err != nil {
		t.Fatalf("Lock() after release: %v", err)
	}
	again()
}
