package utils

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	if !s.Add("Whey X\x00R$ 120,00") {
		t.Error("first Add should return true")
	}
	if s.Add("Whey X\x00R$ 120,00") {
		t.Error("second Add of same key should return false")
	}
	if !s.Add("Whey X\x00R$ 110,00") {
		t.Error("Add of a different key should return true")
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("same") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}
