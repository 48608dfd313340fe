package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestClear(t *testing.T) {
	c := New[int]()
	c.Set("a", 1, 1*time.Second)
	c.Set("b", 2, 1*time.Second)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected cleared cache to be empty")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected cleared cache to be empty")
	}
}

func TestSliceValues(t *testing.T) {
	c := New[[]string]()
	c.Set("q", []string{"x", "y"}, 1*time.Second)
	val, ok := c.Get("q")
	if !ok || len(val) != 2 {
		t.Fatalf("expected cached slice, got %v, exists=%v", val, ok)
	}
}
