package broadcast

import (
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/room"
	"github.com/wfunc/machiserver/session"
	"github.com/wfunc/machiserver/timer"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockConnection records sent payloads and can be switched into a failing
// state to simulate a broken socket.
type MockConnection struct {
	mutex    sync.Mutex
	payloads []any
	broken   bool
}

func (m *MockConnection) SendJSON(v any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.broken {
		return errors.New("connection broken")
	}
	m.payloads = append(m.payloads, v)
	return nil
}

func (m *MockConnection) ReadMessage() ([]byte, error) { return nil, nil }
func (m *MockConnection) Close() error                 { return nil }
func (m *MockConnection) RemoteAddr() net.Addr         { return &net.TCPAddr{} }

func (m *MockConnection) Break() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.broken = true
}

func (m *MockConnection) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.payloads)
}

type MockEvictor struct {
	evicted chan string
}

func (m *MockEvictor) Evict(sessionID string) {
	m.evicted <- sessionID
}

func setup(t *testing.T) (*RoomBroadcaster, *room.Room, *session.Session, *MockConnection, *session.Session, *MockConnection) {
	t.Helper()

	rooms := room.NewManager(time.Minute, timer.NewManager())
	sessions := session.NewManager()
	b := NewRoomBroadcaster(rooms, sessions)

	r := rooms.GetOrCreate("r1", b)

	conn1 := &MockConnection{}
	sess1 := session.NewSession("s1", conn1)
	sessions.Add(sess1)
	if _, _, err := r.Join(sess1, "alice"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	conn2 := &MockConnection{}
	sess2 := session.NewSession("s2", conn2)
	sessions.Add(sess2)
	if _, _, err := r.Join(sess2, "bob"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	return b, r, sess1, conn1, sess2, conn2
}

func TestBroadcastToRoom_DeliversToAllSeats(t *testing.T) {
	b, _, _, conn1, _, conn2 := setup(t)

	before1, before2 := conn1.Count(), conn2.Count()
	if err := b.BroadcastToRoom("r1", "hello", ""); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	if conn1.Count() != before1+1 || conn2.Count() != before2+1 {
		t.Errorf("Both seats should receive the payload, got %d/%d new",
			conn1.Count()-before1, conn2.Count()-before2)
	}
}

func TestBroadcastToRoom_ExcludesSession(t *testing.T) {
	b, _, _, conn1, _, conn2 := setup(t)

	before1, before2 := conn1.Count(), conn2.Count()
	if err := b.BroadcastToRoom("r1", "hello", "s1"); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	if conn1.Count() != before1 {
		t.Error("Excluded session must not receive the payload")
	}
	if conn2.Count() != before2+1 {
		t.Error("Non-excluded session should receive the payload")
	}
}

func TestBroadcastToRoom_FailureEvictsAndContinues(t *testing.T) {
	b, _, _, conn1, _, conn2 := setup(t)

	evictor := &MockEvictor{evicted: make(chan string, 2)}
	b.SetEvictor(evictor)

	conn1.Break()
	before2 := conn2.Count()

	if err := b.BroadcastToRoom("r1", "hello", ""); err != nil {
		t.Fatalf("A failed recipient must not fail the broadcast: %v", err)
	}

	if conn2.Count() != before2+1 {
		t.Error("Delivery must continue past a broken connection")
	}

	select {
	case id := <-evictor.evicted:
		if id != "s1" {
			t.Errorf("Expected eviction of s1, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Broken connection was never evicted")
	}
}

func TestBroadcastToRoom_UnknownRoom(t *testing.T) {
	rooms := room.NewManager(time.Minute, timer.NewManager())
	b := NewRoomBroadcaster(rooms, session.NewManager())

	if err := b.BroadcastToRoom("nope", "hello", ""); err != ErrRoomNotFound {
		t.Fatalf("Expected ErrRoomNotFound, got %v", err)
	}
}
