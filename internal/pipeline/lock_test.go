package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"wavebars/internal/logging"
	"wavebars/internal/services"
)

func TestLockClipUnlinksBeforeRelease(t *testing.T) {
	dir := t.TempDir()
	d := &Driver{opts: Options{FramesDir: dir}, logger: logging.NewNop()}
	path := filepath.Join(dir, "5.lock")

	unlock, err := d.lockClip("5")
	if err != nil {
		t.Fatalf("lockClip: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
	if _, err := d.lockClip("5"); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO while held, got %v", err)
	}

	unlock()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file removed, got %v", err)
	}
	again, err := d.lockClip("5")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestLockHeldAtPathDetectsReplacedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "9.lock")
	lock := flock.New(path)
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer lock.Unlock()

	current, err := lockHeldAtPath(lock)
	if err != nil || !current {
		t.Fatalf("fresh lock: current=%v err=%v", current, err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if current, err := lockHeldAtPath(lock); err != nil || current {
		t.Fatalf("unlinked lock: current=%v err=%v", current, err)
	}

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if current, err := lockHeldAtPath(lock); err != nil || current {
		t.Fatalf("replaced lock: current=%v err=%v", current, err)
	}
}

func TestLockClipSkipsOrphanedLockFile(t *testing.T) {
	dir := t.TempDir()
	d := &Driver{opts: Options{FramesDir: dir}, logger: logging.NewNop()}
	path := filepath.Join(dir, "6.lock")

	// A run that still holds a lock on an inode already unlinked from path
	// must not block a new run, and the new run's lock must be the file at path.
	orphan := flock.New(path)
	if ok, err := orphan.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer orphan.Unlock()
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	unlock, err := d.lockClip("6")
	if err != nil {
		t.Fatalf("lockClip: %v", err)
	}
	defer unlock()
	if _, err := d.lockClip("6"); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected second run to be refused, got %v", err)
	}
}
