package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/network"
	"github.com/wfunc/machiserver/room"
	"github.com/wfunc/machiserver/session"
)

// handleMessage decodes one inbound action and routes it. Malformed input is
// answered with an error message and never kills the read loop; stale or
// out-of-turn game actions are silently dropped so racing clients cannot
// disturb each other's sessions.
func (s *GameServer) handleMessage(sess *session.Session, data []byte) {
	start := time.Now()
	if s.monitor != nil {
		s.monitor.IncActionsReceived()
	}

	var act network.Action
	if err := json.Unmarshal(data, &act); err != nil {
		logger.Log.Warnf("Malformed message from session %s: %v", sess.GetID(), err)
		sess.Send(network.NewError("invalid message"))
		return
	}

	switch act.Action {
	case network.ActionJoin:
		s.handleJoin(sess, &act)
	case network.ActionLeave:
		s.handleLeave(sess)
	case network.ActionRoll:
		s.handleRoll(&act)
	case network.ActionBuy:
		s.handleBuy(&act)
	case network.ActionBuild:
		s.handleBuild(&act)
	case network.ActionReset:
		s.handleReset(&act)
	case network.ActionStart:
		s.handleStart(&act)
	case network.ActionGetRooms:
		s.handleGetRooms(sess)
	case network.ActionPing:
		sess.Send(network.NewPong())
	default:
		logger.Log.Warnf("Unknown action %q from session %s", act.Action, sess.GetID())
		sess.Send(network.NewError("unknown action"))
	}

	if s.monitor != nil {
		s.monitor.ObserveActionLatency(time.Since(start))
	}
}

func (s *GameServer) handleJoin(sess *session.Session, act *network.Action) {
	if act.Room == "" {
		sess.Send(network.NewError("room id is required"))
		return
	}

	// A join while already seated means the client is switching rooms.
	s.leaveRoom(sess)

	for {
		rm := s.rooms.GetOrCreate(act.Room, s.broadcaster)
		slot, _, err := rm.Join(sess, act.Name)
		if errors.Is(err, room.ErrRoomClosed) {
			// Lost the race against the deletion timer, fetch a fresh room.
			continue
		}
		if errors.Is(err, room.ErrRoomFull) {
			sess.Send(network.NewError("room is full"))
			return
		}

		sess.Bind(act.Room, slot)
		s.rooms.CancelCleanup(act.Room)
		break
	}

	if s.monitor != nil {
		s.monitor.SetActiveRooms(s.rooms.Count())
	}
}

func (s *GameServer) handleLeave(sess *session.Session) {
	if s.leaveRoom(sess) {
		sess.Send(network.LeftMessage{
			Type:    network.MsgLeft,
			Message: "left the room",
		})
	}
}

func (s *GameServer) handleRoll(act *network.Action) {
	rm, exists := s.rooms.Get(act.Room)
	if !exists {
		return
	}

	d1, d2 := 1, 1
	if len(act.Dice) >= 2 {
		d1, d2 = act.Dice[0], act.Dice[1]
	}
	rm.Roll(act.Player, d1, d2)
}

func (s *GameServer) handleBuy(act *network.Action) {
	rm, exists := s.rooms.Get(act.Room)
	if !exists {
		return
	}
	rm.Buy(act.Player, act.CardID)
}

func (s *GameServer) handleBuild(act *network.Action) {
	rm, exists := s.rooms.Get(act.Room)
	if !exists {
		return
	}

	winner, ok := rm.Build(act.Player, act.LandmarkID)
	if !ok || winner == 0 {
		return
	}

	if s.monitor != nil {
		s.monitor.IncGamesCompleted()
	}
	go s.records.Archive(act.Room, winner, rm.Snapshot())
}

func (s *GameServer) handleReset(act *network.Action) {
	if rm, exists := s.rooms.Get(act.Room); exists {
		rm.Reset()
	}
}

func (s *GameServer) handleStart(act *network.Action) {
	if rm, exists := s.rooms.Get(act.Room); exists {
		rm.Start()
	}
}

func (s *GameServer) handleGetRooms(sess *session.Session) {
	sess.Send(network.RoomsListMessage{
		Type:  network.MsgRoomsList,
		Rooms: s.rooms.ListSummaries(),
	})
}
