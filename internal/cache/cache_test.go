package cache

import (
	"sync"
	"testing"
	"time"
)

func TestPutGetDelete(t *testing.T) {
	c := New()
	when := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	if _, ok := c.Get("e1"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Put("e1", when)
	got, ok := c.Get("e1")
	if !ok {
		t.Fatal("Get after Put should hit")
	}
	if !got.Equal(when) {
		t.Errorf("Get = %v, want %v", got, when)
	}

	later := when.Add(4 * time.Hour)
	c.Put("e1", later)
	if got, _ := c.Get("e1"); !got.Equal(later) {
		t.Errorf("Put should upsert, got %v want %v", got, later)
	}

	c.Delete("e1")
	if _, ok := c.Get("e1"); ok {
		t.Error("Get after Delete should miss")
	}
	// Deleting again must not panic.
	c.Delete("e1")

	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	when := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Put("shared", when)
				c.Get("shared")
				c.Delete("shared")
			}
		}()
	}
	wg.Wait()
}
