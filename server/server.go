package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/machiserver/broadcast"
	"github.com/wfunc/machiserver/config"
	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/monitor"
	"github.com/wfunc/machiserver/network"
	"github.com/wfunc/machiserver/persistence"
	"github.com/wfunc/machiserver/room"
	machiserver_rpc "github.com/wfunc/machiserver/rpc"
	"github.com/wfunc/machiserver/services"
	"github.com/wfunc/machiserver/session"
	"github.com/wfunc/machiserver/timer"
)

type GameServer struct {
	cfg          *config.Config
	upgrader     websocket.Upgrader
	timers       *timer.Manager
	rooms        *room.Manager
	sessions     *session.Manager
	broadcaster  *broadcast.RoomBroadcaster
	records      *services.RecordService
	rpcServer    *machiserver_rpc.Server
	monitor      *monitor.Monitor
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	timers := timer.NewManager()

	s := &GameServer{
		cfg:          cfg,
		timers:       timers,
		rooms:        room.NewManager(cfg.Room.GraceDelay, timers),
		sessions:     session.NewManager(),
		records:      services.NewRecordService(db),
		monitor:      monitor.NewMonitor("machiserver"),
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // clients connect from arbitrary origins
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.rooms, s.sessions)
	s.broadcaster.SetEvictor(s)

	rpcServer, err := machiserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	directory := machiserver_rpc.NewDirectory(s.rooms, s.sessions, s.records)
	rpc.Register(directory)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)
	go s.statsLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rooms", s.handleRooms)

	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.HTTPAddress,
		Handler: mux,
	}

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *GameServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		s.rpcServer.Stop()
		s.timers.Stop()
		if s.httpServer != nil {
			s.httpServer.Close()
		}
	})
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("OK\n"))
}

// handleRooms is the out-of-band discovery listing. It requires no game
// connection and exposes only room summaries.
func (s *GameServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"rooms": s.rooms.ListSummaries(),
	})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessions.Add(sess)
	if s.monitor != nil {
		s.monitor.IncConnectedPlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer s.disconnect(sess)

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.handleMessage(sess, data)
		}
	}
}

// disconnect runs the full teardown for a session exactly once, whether the
// read loop ended or the broadcaster evicted the connection.
func (s *GameServer) disconnect(sess *session.Session) {
	if !s.sessions.Remove(sess.GetID()) {
		return
	}

	logger.Log.Infof("Connection closed, session ID: %s", sess.GetID())
	s.leaveRoom(sess)
	sess.Close()
	if s.monitor != nil {
		s.monitor.DecConnectedPlayers()
	}
}

// Evict implements broadcast.Evictor: a connection that failed delivery is
// treated exactly like a disconnect.
func (s *GameServer) Evict(sessionID string) {
	if sess, exists := s.sessions.Get(sessionID); exists {
		s.disconnect(sess)
	}
}

// leaveRoom removes the session's room binding and seat, scheduling the
// room's grace-delay deletion when it empties. Reports whether a seat was
// actually left.
func (s *GameServer) leaveRoom(sess *session.Session) bool {
	binding, bound := sess.Unbind()
	if !bound {
		return false
	}

	rm, exists := s.rooms.Get(binding.RoomID)
	if !exists {
		return false
	}

	removed, empty := rm.Leave(sess.GetID())
	if empty {
		s.rooms.ScheduleCleanup(binding.RoomID)
	}
	return removed
}

// statsLoop periodically logs occupancy, doubling as a keep-alive signal for
// hosting platforms that idle out quiet processes.
func (s *GameServer) statsLoop() {
	interval := s.cfg.Room.StatsInterval
	if interval <= 0 {
		interval = 600 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rooms := s.rooms.Count()
			sessions := s.sessions.Count()
			if s.monitor != nil {
				s.monitor.SetActiveRooms(rooms)
			}
			logger.Log.Infof("Keep-alive: %d rooms, %d sessions", rooms, sessions)
		case <-s.shutdownChan:
			return
		}
	}
}
