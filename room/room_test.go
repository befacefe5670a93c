package room

import (
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/machiserver/game"
	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/network"
	"github.com/wfunc/machiserver/session"
	"github.com/wfunc/machiserver/timer"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockBroadcaster records everything broadcast to a room.
type MockBroadcaster struct {
	mutex    sync.Mutex
	payloads []any
}

func (m *MockBroadcaster) BroadcastToRoom(roomID string, payload any, excludeSessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *MockBroadcaster) Payloads() []any {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]any, len(m.payloads))
	copy(out, m.payloads)
	return out
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) SendJSON(v any) error         { return nil }
func (m *MockConnection) ReadMessage() ([]byte, error) { return nil, nil }
func (m *MockConnection) Close() error                 { return nil }
func (m *MockConnection) RemoteAddr() net.Addr         { return &net.TCPAddr{} }

func newTestSession(id string) *session.Session {
	return session.NewSession(id, &MockConnection{})
}

// newStartedRoom returns a two-player room with the game armed.
func newStartedRoom(t *testing.T) (*Room, *MockBroadcaster) {
	t.Helper()

	b := &MockBroadcaster{}
	r := NewRoom("test_room", b)

	if _, _, err := r.Join(newTestSession("s1"), "alice"); err != nil {
		t.Fatalf("First join failed: %v", err)
	}
	if _, _, err := r.Join(newTestSession("s2"), "bob"); err != nil {
		t.Fatalf("Second join failed: %v", err)
	}
	if !r.Start() {
		t.Fatal("Start with two players should succeed")
	}
	return r, b
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager(time.Minute, timer.NewManager())
	b := &MockBroadcaster{}

	r := m.GetOrCreate("r1", b)
	if r == nil {
		t.Fatal("GetOrCreate should not return nil")
	}
	if again := m.GetOrCreate("r1", b); again != r {
		t.Error("GetOrCreate should return the same room instance")
	}

	got, exists := m.Get("r1")
	if !exists || got != r {
		t.Error("Get should find the created room")
	}
	if _, exists := m.Get("r2"); exists {
		t.Error("Get should not find an unknown room")
	}
}

func TestRoom_JoinAssignsSlotsInOrder(t *testing.T) {
	r := NewRoom("r1", &MockBroadcaster{})

	slot1, state, err := r.Join(newTestSession("s1"), "alice")
	if err != nil || slot1 != 1 {
		t.Fatalf("Expected slot 1 for first joiner, got %d err=%v", slot1, err)
	}
	if state.P1.Name != "alice" {
		t.Errorf("Expected name stored on p1, got %q", state.P1.Name)
	}
	if state.Turn != 0 {
		t.Errorf("New room should be waiting (turn 0), got %d", state.Turn)
	}

	slot2, _, err := r.Join(newTestSession("s2"), "bob")
	if err != nil || slot2 != 2 {
		t.Fatalf("Expected slot 2 for second joiner, got %d err=%v", slot2, err)
	}

	if _, _, err := r.Join(newTestSession("s3"), "carol"); err != ErrRoomFull {
		t.Fatalf("Third join should fail with ErrRoomFull, got %v", err)
	}
	if r.Occupancy() != 2 {
		t.Errorf("Occupancy must never exceed 2, got %d", r.Occupancy())
	}
}

func TestRoom_JoinBroadcastsCanStartWhenFull(t *testing.T) {
	b := &MockBroadcaster{}
	r := NewRoom("r1", b)

	r.Join(newTestSession("s1"), "alice")
	r.Join(newTestSession("s2"), "bob")

	var joined, canStart int
	for _, payload := range b.Payloads() {
		switch payload.(type) {
		case network.PlayerJoinedMessage:
			joined++
		case network.CanStartMessage:
			canStart++
		}
	}
	if joined != 2 {
		t.Errorf("Expected 2 playerJoined broadcasts, got %d", joined)
	}
	if canStart != 1 {
		t.Errorf("Expected 1 canStart broadcast, got %d", canStart)
	}
}

func TestRoom_StartRequiresTwoPlayers(t *testing.T) {
	r := NewRoom("r1", &MockBroadcaster{})
	r.Join(newTestSession("s1"), "alice")

	if r.Start() {
		t.Fatal("Start with one player should fail")
	}
	if r.Turn() != 0 {
		t.Errorf("Failed start must not change turn, got %d", r.Turn())
	}
}

func TestRoom_RollFlipsTurnAndRecordsDice(t *testing.T) {
	r, _ := newStartedRoom(t)

	if !r.Roll(1, 3, 3) {
		t.Fatal("Roll by the current-turn player should succeed")
	}

	state := r.Snapshot()
	if state.Turn != 2 {
		t.Errorf("Expected turn to flip to 2, got %d", state.Turn)
	}
	if state.LastRoll != [2]int{3, 3} {
		t.Errorf("Expected lastRoll [3 3], got %v", state.LastRoll)
	}

	if !r.Roll(2, 1, 2) {
		t.Fatal("Roll by player 2 should succeed after the flip")
	}
	if r.Turn() != 1 {
		t.Errorf("Expected turn to flip back to 1, got %d", r.Turn())
	}
}

func TestRoom_RollOutOfTurnIsSilentNoOp(t *testing.T) {
	r, _ := newStartedRoom(t)
	before := r.Snapshot()

	if r.Roll(2, 4, 5) {
		t.Fatal("Roll by the non-turn player should be rejected")
	}

	after := r.Snapshot()
	if after.Turn != before.Turn || after.LastRoll != before.LastRoll {
		t.Error("Rejected roll must not mutate room state")
	}
	if after.P1.Coins != before.P1.Coins || after.P2.Coins != before.P2.Coins {
		t.Error("Rejected roll must not mutate balances")
	}
}

func TestRoom_RollAppliesEconomy(t *testing.T) {
	r, _ := newStartedRoom(t)

	// Both players start with wheat and bakery; sum 3 pays the active
	// player's bakery only.
	r.Roll(1, 1, 2)

	state := r.Snapshot()
	if state.P1.Coins != game.StartingCoins+1 {
		t.Errorf("Expected p1 to earn 1 bakery coin, got %d", state.P1.Coins)
	}
	if state.P2.Coins != game.StartingCoins {
		t.Errorf("Expected p2 unchanged, got %d", state.P2.Coins)
	}
}

func TestRoom_BuyDebitsActivePlayer(t *testing.T) {
	r, _ := newStartedRoom(t)

	if !r.Buy(1, game.CardForest) {
		t.Fatal("Buying forest with 3 coins should succeed")
	}

	state := r.Snapshot()
	if state.P1.Coins != 0 {
		t.Errorf("Expected 0 coins after buying forest, got %d", state.P1.Coins)
	}
	if !state.P1.Owns(game.CardForest) {
		t.Error("Forest should appear in p1 enterprises")
	}

	if r.Buy(1, game.CardForest) {
		t.Error("Unaffordable buy should be a silent no-op")
	}
	if r.Buy(2, game.CardWheat) {
		t.Error("Out-of-turn buy should be a silent no-op")
	}
}

func TestRoom_BuildRejectsUnaffordableAndDuplicate(t *testing.T) {
	r, _ := newStartedRoom(t)

	if _, ok := r.Build(1, game.LandmarkStation); ok {
		t.Fatal("Building station with 3 coins should fail")
	}

	r.p1.Coins = 8
	if _, ok := r.Build(1, game.LandmarkStation); !ok {
		t.Fatal("Building station with 8 coins should succeed")
	}
	if _, ok := r.Build(1, game.LandmarkStation); ok {
		t.Fatal("Building a duplicate landmark should fail")
	}
}

func TestRoom_FourthLandmarkEndsGame(t *testing.T) {
	r, b := newStartedRoom(t)

	r.p1.Coins = 60
	for _, id := range []string{game.LandmarkStation, game.LandmarkMall, game.LandmarkAmusement} {
		if winner, ok := r.Build(1, id); !ok || winner != 0 {
			t.Fatalf("Building %s should succeed without winning", id)
		}
	}

	winner, ok := r.Build(1, game.LandmarkTVTower)
	if !ok || winner != 1 {
		t.Fatalf("Fourth landmark should win for player 1, got winner=%d ok=%v", winner, ok)
	}
	if r.Phase() != PhaseGameOver {
		t.Errorf("Expected gameOver phase, got %v", r.Phase())
	}

	payloads := b.Payloads()
	last, isOver := payloads[len(payloads)-1].(network.GameOverMessage)
	if !isOver {
		t.Fatalf("Expected final broadcast to be gameOver, got %T", payloads[len(payloads)-1])
	}
	if last.Winner != 1 || last.WinnerName != "alice" {
		t.Errorf("Expected winner 1 (alice), got %d (%s)", last.Winner, last.WinnerName)
	}
}

func TestRoom_GameOverFreezesActions(t *testing.T) {
	r, _ := newStartedRoom(t)

	r.p1.Coins = 60
	for _, id := range []string{game.LandmarkStation, game.LandmarkMall, game.LandmarkAmusement, game.LandmarkTVTower} {
		r.Build(1, id)
	}

	before := r.Snapshot()
	if r.Roll(1, 2, 3) || r.Buy(1, game.CardWheat) {
		t.Error("Roll and buy must be rejected after game over")
	}
	if _, ok := r.Build(1, game.LandmarkStation); ok {
		t.Error("Build must be rejected after game over")
	}
	after := r.Snapshot()
	if after.P1.Coins != before.P1.Coins || after.Turn != before.Turn {
		t.Error("State must not change while game over")
	}

	// Reset re-arms the room.
	r.Reset()
	if r.Phase() != PhaseActive || r.Turn() != 1 {
		t.Errorf("Reset should re-arm the room, phase=%v turn=%d", r.Phase(), r.Turn())
	}
}

func TestRoom_ResetIsIdempotent(t *testing.T) {
	r, _ := newStartedRoom(t)
	r.Roll(1, 2, 3)
	r.Buy(2, game.CardWheat)

	r.Reset()
	first := r.Snapshot()
	r.Reset()
	second := r.Snapshot()

	if first.Turn != second.Turn || first.LastRoll != second.LastRoll {
		t.Error("Double reset should match a single reset")
	}
	if first.P1.Coins != second.P1.Coins || first.P2.Coins != second.P2.Coins {
		t.Error("Double reset should leave identical balances")
	}
	if second.P1.Name != "alice" || second.P2.Name != "bob" {
		t.Errorf("Reset must preserve names, got %q/%q", second.P1.Name, second.P2.Name)
	}
}

func TestRoom_LeaveResetsToWaitingAndRenumbers(t *testing.T) {
	r, b := newStartedRoom(t)

	removed, empty := r.Leave("s1")
	if !removed || empty {
		t.Fatalf("Expected removed=true empty=false, got %v %v", removed, empty)
	}

	state := r.Snapshot()
	if state.Turn != 0 {
		t.Errorf("Room with one occupant should fall back to waiting, got turn %d", state.Turn)
	}
	if state.P1.Name != "bob" {
		t.Errorf("Remaining player should be renumbered to slot 1, p1 name %q", state.P1.Name)
	}

	seats := r.Seats()
	if len(seats) != 1 || seats[0].Slot != 1 {
		t.Fatalf("Expected one seat with slot 1, got %+v", seats)
	}
	binding, bound := seats[0].Session.Binding()
	if !bound || binding.Slot != 1 {
		t.Errorf("Survivor's binding should be updated to slot 1, got %+v", binding)
	}

	payloads := b.Payloads()
	if _, isLeft := payloads[len(payloads)-1].(network.PlayerLeftMessage); !isLeft {
		t.Errorf("Expected playerLeft broadcast, got %T", payloads[len(payloads)-1])
	}

	// A new joiner takes slot 2 again.
	slot, _, err := r.Join(newTestSession("s3"), "carol")
	if err != nil || slot != 2 {
		t.Errorf("Expected new joiner to get slot 2, got %d err=%v", slot, err)
	}
}

func TestRoom_LeaveLastOccupantReportsEmpty(t *testing.T) {
	r := NewRoom("r1", &MockBroadcaster{})
	r.Join(newTestSession("s1"), "alice")

	removed, empty := r.Leave("s1")
	if !removed || !empty {
		t.Fatalf("Expected removed=true empty=true, got %v %v", removed, empty)
	}
	if removed, _ := r.Leave("s1"); removed {
		t.Error("Leaving twice should be a no-op")
	}
}

func TestManager_CleanupDeletesEmptyRoomAfterGrace(t *testing.T) {
	m := NewManager(50*time.Millisecond, timer.NewManager())
	b := &MockBroadcaster{}

	m.GetOrCreate("r1", b)
	m.ScheduleCleanup("r1")

	if _, exists := m.Get("r1"); !exists {
		t.Fatal("Room must survive until the grace delay elapses")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, exists := m.Get("r1"); !exists {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Room was not deleted after the grace delay")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManager_CleanupSparesRejoinedRoom(t *testing.T) {
	m := NewManager(50*time.Millisecond, timer.NewManager())
	b := &MockBroadcaster{}

	r := m.GetOrCreate("r1", b)
	m.ScheduleCleanup("r1")

	// Rejoin before the delay elapses; the fire-time occupancy check must
	// spare the room.
	if _, _, err := r.Join(newTestSession("s1"), "alice"); err != nil {
		t.Fatalf("Rejoin during grace window failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if _, exists := m.Get("r1"); !exists {
		t.Fatal("Occupied room must not be deleted when the timer fires")
	}
}

func TestManager_RemoveSkipsOccupiedRoom(t *testing.T) {
	m := NewManager(time.Minute, timer.NewManager())
	r := m.GetOrCreate("r1", &MockBroadcaster{})
	r.Join(newTestSession("s1"), "alice")

	m.Remove("r1")
	if _, exists := m.Get("r1"); !exists {
		t.Fatal("Remove must be a no-op for an occupied room")
	}

	// Removing an unknown room is also a no-op.
	m.Remove("r2")
}

func TestManager_ListSummaries(t *testing.T) {
	m := NewManager(time.Minute, timer.NewManager())
	r := m.GetOrCreate("r1", &MockBroadcaster{})
	r.Join(newTestSession("s1"), "alice")

	summaries := m.ListSummaries()
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	s := summaries[0]
	if s.ID != "r1" || s.Players != 1 || s.MaxPlayers != MaxPlayers || s.Status != "waiting" {
		t.Errorf("Unexpected summary %+v", s)
	}
}
