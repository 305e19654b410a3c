package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	lockPath := filepath.Join(dir, LockFileName)
	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
	if !strings.HasPrefix(string(data), "pid=") {
		t.Errorf("lock file should record pid, got %q", string(data))
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed after release")
	}

	// Release again is a no-op.
	if err := lock.Release(); err != nil {
		t.Errorf("second Release should succeed, got %v", err)
	}
}

func TestAcquireLockConflict(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}
	defer first.Release()

	_, err = AcquireLock(dir)
	if err == nil {
		t.Fatal("second AcquireLock should fail while first is held")
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockError, got %T: %v", err, err)
	}
	if !strings.Contains(lockErr.Holder, "running") {
		t.Errorf("holder should identify the running process, got %q", lockErr.Holder)
	}

	// The failed attempt must not disturb the holder's pid record.
	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		t.Fatalf("lock file unreadable after failed acquisition: %v", err)
	}
	if !strings.HasPrefix(string(data), "pid=") {
		t.Errorf("pid record should survive a failed acquisition, got %q", string(data))
	}
}

func TestAcquireLockCreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock should create missing state dir: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state dir should exist: %v", err)
	}
}

func TestParsePID(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"pid=1234\n", 1234},
		{"pid=7", 7},
		{"garbage", 0},
		{"pid=", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parsePID(tc.content); got != tc.want {
			t.Errorf("parsePID(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}
