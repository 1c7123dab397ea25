package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/use-agent/pagedrop/models"
)

func TestKey(t *testing.T) {
	if Key("<p>a</p>", "product") == Key("<p>a</p>", "page") {
		t.Error("profile not part of key")
	}
	if Key("<p>a</p>", "product") != Key("<p>a</p>", "product") {
		t.Error("key not deterministic")
	}
	if len(Key("", "")) != 64 {
		t.Error("key is not hex sha256")
	}
}

func TestCache_GetSetExpiry(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Close()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	resp := &models.BackendResponse{Message: "Processing successful"}
	c.Set("k", resp)

	got, ok := c.Get("k")
	if !ok || got != resp {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
	c.evictExpired()
	if c.Len() != 0 {
		t.Errorf("Len = %d after eviction", c.Len())
	}
}

func TestCache_Capacity(t *testing.T) {
	c := New(3, time.Minute)
	defer c.Close()
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprint(i), &models.BackendResponse{})
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
	// Overwriting an existing key never evicts.
	c.Set("4", &models.BackendResponse{Message: "again"})
	if c.Len() != 3 {
		t.Errorf("Len = %d after overwrite", c.Len())
	}
}

func TestCache_Disabled(t *testing.T) {
	c := New(0, time.Minute)
	defer c.Close()
	c.Set("k", &models.BackendResponse{})
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned an entry")
	}

	var nilCache *Cache
	nilCache.Set("k", &models.BackendResponse{})
	if _, ok := nilCache.Get("k"); ok {
		t.Error("nil cache returned an entry")
	}
}
