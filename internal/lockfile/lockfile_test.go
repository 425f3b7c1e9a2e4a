package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	stateDir := t.TempDir()

	lock, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	lockPath := filepath.Join(stateDir, LockFileName)
	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
	want := fmt.Sprintf("pid=%d", os.Getpid())
	if !strings.Contains(string(data), want) {
		t.Errorf("lock file content = %q, want it to contain %q", data, want)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file still present after release: %v", err)
	}

	// Release is idempotent.
	if err := lock.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestAcquireCreatesStateDir(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "nested", "state")
	lock, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(stateDir); err != nil {
		t.Errorf("state directory not created: %v", err)
	}
}

func TestSecondAcquireFails(t *testing.T) {
	stateDir := t.TempDir()

	first, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}
	defer first.Release()

	_, err = AcquireLock(stateDir)
	if err == nil {
		t.Fatal("second AcquireLock succeeded while lock held")
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("error type = %T, want *LockError", err)
	}
	if !strings.Contains(lockErr.Holder, fmt.Sprintf("PID %d", os.Getpid())) {
		t.Errorf("holder = %q, want it to name this process", lockErr.Holder)
	}
	if !strings.Contains(lockErr.Holder, "running") {
		t.Errorf("holder = %q, want liveness reported", lockErr.Holder)
	}

	// The failed attempt must not wipe the holder's stamp.
	data, err := os.ReadFile(filepath.Join(stateDir, LockFileName))
	if err != nil {
		t.Fatalf("reading lock file after failed acquire: %v", err)
	}
	if !strings.Contains(string(data), fmt.Sprintf("pid=%d", os.Getpid())) {
		t.Errorf("lock file content = %q, pid stamp lost on failed acquire", data)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	stateDir := t.TempDir()

	first, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	second, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("reacquire after release failed: %v", err)
	}
	second.Release()
}

func TestExtractPID(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"pid=1234\n", 1234},
		{"pid=1234", 1234},
		{"garbage", 0},
		{"pid=", 0},
		{"pid=abc", 0},
	}
	for _, tt := range tests {
		if got := extractPID(tt.content); got != tt.want {
			t.Errorf("extractPID(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}
