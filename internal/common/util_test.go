package common

import (
	"errors"
	"testing"
)

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- StorageError ----------

func TestStorageError_MatchesSentinelAndKeepsCause(t *testing.T) {
	err := StorageError(errors.New("connection refused"))

	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if err.Error() != "storage unavailable: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
