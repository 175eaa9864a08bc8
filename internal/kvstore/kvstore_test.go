package kvstore

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNew_RequiresStorageDir(t *testing.T) {
	t.Parallel()

	if _, err := New(afero.NewMemMapFs(), ""); err != ErrStorageDirRequired {
		t.Fatalf("expected ErrStorageDirRequired, got %v", err)
	}
	if _, err := New(afero.NewMemMapFs(), "   "); err != ErrStorageDirRequired {
		t.Fatalf("expected ErrStorageDirRequired for whitespace, got %v", err)
	}
}

func TestSetGetDelete(t *testing.T) {
	t.Parallel()

	s := setupStore(t)

	if err := s.Set("flag", true, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var flag bool
	ok, err := s.Get("flag", &flag)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || !flag {
		t.Fatalf("expected stored true flag, got ok=%v flag=%v", ok, flag)
	}

	if err := s.Delete("flag"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := s.Get("flag", &flag); ok {
		t.Fatal("expected entry gone after delete")
	}

	// Deleting again is a no-op.
	if err := s.Delete("flag"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
}

func TestGet_ExpiredEntryIsAMiss(t *testing.T) {
	t.Parallel()

	s := setupStore(t)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	if err := s.Set("token", "abc", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var token string
	if ok, _ := s.Get("token", &token); !ok || token != "abc" {
		t.Fatalf("expected live token, got ok=%v token=%q", ok, token)
	}

	current = current.Add(2 * time.Hour)
	if ok, _ := s.Get("token", &token); ok {
		t.Fatal("expected expired entry to read as absent")
	}
}

func TestReload_DropsExpiredKeepsLive(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s, err := New(fs, "/data")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := s.Set("keep", 1, time.Hour); err != nil {
		t.Fatalf("Set keep failed: %v", err)
	}
	if err := s.Set("drop", 2, time.Nanosecond); err != nil {
		t.Fatalf("Set drop failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	reloaded, err := New(fs, "/data")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	var n int
	if ok, _ := reloaded.Get("keep", &n); !ok || n != 1 {
		t.Fatalf("expected keep=1 to survive reload, got ok=%v n=%d", ok, n)
	}
	if ok, _ := reloaded.Get("drop", &n); ok {
		t.Fatal("expected expired entry pruned on reload")
	}
}

func TestGet_RequiresKey(t *testing.T) {
	t.Parallel()

	s := setupStore(t)
	if _, err := s.Get("", nil); err != ErrKeyRequired {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
	if err := s.Set(" ", 1, 0); err != ErrKeyRequired {
		t.Fatalf("expected ErrKeyRequired on Set, got %v", err)
	}
}
