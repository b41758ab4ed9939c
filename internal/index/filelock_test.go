package index

import (
	"os"
	"path/filepath"
	"testing"
)

// unlockLock is a test helper that unlocks and logs any error
func unlockLock(t *testing.T, lock *FileLock) {
	t.Helper()
	if err := lock.Unlock(); err != nil {
		t.Logf("Warning: Unlock failed: %v", err)
	}
}

func TestFileLock_TryLock_Success(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "nested", lockFilename)

	lock := NewFileLock(lockPath)
	defer unlockLock(t, lock)

	acquired, err := lock.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("Expected to acquire lock")
	}
	if !lock.IsLocked() {
		t.Error("Expected IsLocked to return true")
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("Expected lock file and parent directories to be created: %v", err)
	}
}

func TestFileLock_TryLock_AlreadyHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), lockFilename)

	lock1 := NewFileLock(lockPath)
	acquired, err := lock1.TryLock()
	if err != nil || !acquired {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	defer unlockLock(t, lock1)

	lock2 := NewFileLock(lockPath)
	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("Second TryLock returned error: %v", err)
	}
	if acquired {
		t.Error("Expected second lock acquisition to fail")
		unlockLock(t, lock2)
	}
	if lock2.IsLocked() {
		t.Error("Expected second lock's IsLocked to return false")
	}
}

func TestFileLock_Unlock_ReleasesProperly(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), lockFilename)

	lock1 := NewFileLock(lockPath)
	acquired, err := lock1.TryLock()
	if err != nil || !acquired {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if lock1.IsLocked() {
		t.Error("Expected IsLocked to return false after unlock")
	}

	lock2 := NewFileLock(lockPath)
	defer unlockLock(t, lock2)
	acquired, err = lock2.TryLock()
	if err != nil || !acquired {
		t.Errorf("Expected to reacquire released lock, got %v, %v", acquired, err)
	}
}

func TestFileLock_Unlock_NotLocked(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), lockFilename))
	if err := lock.Unlock(); err != nil {
		t.Errorf("Expected no error unlocking an unlocked lock, got: %v", err)
	}
}

func TestFileLock_Path(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), lockFilename)
	if NewFileLock(lockPath).Path() != lockPath {
		t.Error("Expected Path to return the lock file path")
	}
}
