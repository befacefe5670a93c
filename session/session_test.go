package session

import (
	"net"
	"testing"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) SendJSON(v any) error         { return nil }
func (m *MockConnection) ReadMessage() ([]byte, error) { return nil, nil }
func (m *MockConnection) Close() error                 { return nil }
func (m *MockConnection) RemoteAddr() net.Addr         { return &net.TCPAddr{} }

func TestSession_BindUnbind(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})

	if _, bound := sess.Binding(); bound {
		t.Fatal("New session should have no binding")
	}

	if _, hadPrev := sess.Bind("room1", 1); hadPrev {
		t.Error("First bind should report no previous binding")
	}

	binding, bound := sess.Binding()
	if !bound || binding.RoomID != "room1" || binding.Slot != 1 {
		t.Errorf("Expected binding (room1, 1), got %+v bound=%v", binding, bound)
	}

	prev, hadPrev := sess.Bind("room2", 2)
	if !hadPrev || prev.RoomID != "room1" {
		t.Errorf("Rebinding should return the previous binding, got %+v hadPrev=%v", prev, hadPrev)
	}

	binding, _ = sess.Binding()
	if binding.RoomID != "room2" || binding.Slot != 2 {
		t.Errorf("Expected binding (room2, 2), got %+v", binding)
	}

	unbound, ok := sess.Unbind()
	if !ok || unbound.RoomID != "room2" {
		t.Errorf("Unbind should return the cleared binding, got %+v ok=%v", unbound, ok)
	}

	if _, ok := sess.Unbind(); ok {
		t.Error("Second unbind should report nothing bound")
	}
}

func TestManager_AddGetRemove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected 1 session, got %d", manager.Count())
	}

	got, exists := manager.Get("s1")
	if !exists || got != sess {
		t.Fatal("Get should return the added session instance")
	}

	if !manager.Remove("s1") {
		t.Fatal("Remove should report the session was present")
	}
	if manager.Remove("s1") {
		t.Fatal("Second remove should report the session was absent")
	}
	if _, exists := manager.Get("s1"); exists {
		t.Fatal("Get should not find a removed session")
	}
}
