package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFileCache_GetSet(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		data []byte
	}{
		{"simple", "key1", []byte("hello")},
		{"json", "key2", []byte(`{"root":{"localUrl":"https://cloud/v1"}}`)},
		{"binary", "key3", []byte{0x00, 0xff, 0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(ctx, tt.key, tt.data, time.Hour); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			got, hit, err := c.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if !hit {
				t.Fatal("Get() returned miss for existing key")
			}
			if string(got) != string(tt.data) {
				t.Errorf("Get() = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestFileCache_Miss(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	_, hit, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("Get() returned hit for missing key")
	}
}

func TestFileCache_Expiration(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	_, hit, err := c.Get(ctx, "key")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v; want hit", hit, err)
	}

	time.Sleep(20 * time.Millisecond)

	_, hit, err = c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("Get() returned hit for expired key")
	}
}

func TestFileCache_Delete(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get() returned hit after Delete()")
	}

	// Deleting a missing key is not an error
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("NullCache returned a hit")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	topo := k.TopologyKey("https://cloud/v1/topology")
	if !strings.HasPrefix(topo, "topology:") {
		t.Errorf("TopologyKey prefix: %s", topo)
	}

	a := k.LayoutKey("hash1", LayoutKeyOpts{Style: "Standard", Width: 800, Height: 600})
	b := k.LayoutKey("hash1", LayoutKeyOpts{Style: "Packed", Width: 800, Height: 600})
	if a == b {
		t.Error("LayoutKey should differ for different styles")
	}
	if a != k.LayoutKey("hash1", LayoutKeyOpts{Style: "Standard", Width: 800, Height: 600}) {
		t.Error("LayoutKey should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "site:a:")

	key := scoped.TopologyKey("https://cloud/v1/topology")
	if !strings.HasPrefix(key, "site:a:topology:") {
		t.Errorf("ScopedKeyer TopologyKey unexpected: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	if key := scoped.TopologyKey("u"); !strings.HasPrefix(key, "prefix:topology:") {
		t.Errorf("unexpected key: %s", key)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("fatal")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-retryable errors must not retry)", calls)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
