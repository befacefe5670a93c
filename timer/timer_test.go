package timer

import (
	"testing"
	"time"
)

func TestManager_FiresAfterDelay(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{})
	m.Add(30*time.Millisecond, 0, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Timer never fired")
	}
}

func TestManager_RemoveCancelsPendingTask(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{}, 1)
	id := m.Add(50*time.Millisecond, 0, func() {
		fired <- struct{}{}
	})
	m.Remove(id)

	select {
	case <-fired:
		t.Fatal("Cancelled timer must not fire")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManager_IntervalReschedules(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{}, 10)
	id := m.Add(10*time.Millisecond, 20*time.Millisecond, func() {
		fired <- struct{}{}
	})
	defer m.Remove(id)

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatalf("Repeating timer fired only %d times", i)
		}
	}
}
