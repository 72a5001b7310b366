package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"same content", "digraph{}", "digraph{}", true},
		{"different content", "digraph{a}", "digraph{b}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := Key("svg", []byte(tt.a)), Key("svg", []byte(tt.b))
			if (ka == kb) != tt.equal {
				t.Errorf("Key(%q) == Key(%q) is %v, want %v", tt.a, tt.b, ka == kb, tt.equal)
			}
		})
	}
	if Key("svg", []byte("x")) == Key("png", []byte("x")) {
		t.Error("kind should be part of the key")
	}
	if got := len(Hash([]byte("hello"))); got != 64 {
		t.Errorf("Hash length = %d, want 64", got)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "svg:1"); hit || err != nil {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "svg:1", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "svg:1")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get() = %q, %v, %v; want <svg/>", data, hit, err)
	}

	if err := c.Delete(ctx, "svg:1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "svg:1"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "svg:1"); err != nil {
		t.Errorf("Delete of a missing key error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v; want miss", hit, err)
	}
}
