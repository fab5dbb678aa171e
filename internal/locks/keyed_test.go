// ABOUTME: Tests for the keyed mutex set
package locks

import (
	"sync"
	"testing"
)

func TestAcquireSerializesSameKey(t *testing.T) {
	keyed := NewKeyed()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := keyed.Acquire("u1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestAcquireDifferentKeysDoNotBlock(t *testing.T) {
	keyed := NewKeyed()

	unlockA := keyed.Acquire("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := keyed.Acquire("b")
		unlockB()
		close(done)
	}()
	<-done
}
