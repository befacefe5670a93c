package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/models"
	"github.com/wfunc/machiserver/room"
	"github.com/wfunc/machiserver/services"
	"github.com/wfunc/machiserver/session"
)

// Server manages the RPC listener for out-of-band ops tooling.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests. Blocks until Stop closes the
// listener.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Directory exposes the room and record read surface over net/rpc.
type Directory struct {
	rooms    *room.Manager
	sessions *session.Manager
	records  *services.RecordService
}

func NewDirectory(rooms *room.Manager, sessions *session.Manager, records *services.RecordService) *Directory {
	return &Directory{rooms: rooms, sessions: sessions, records: records}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []room.Summary
}

func (d *Directory) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = d.rooms.ListSummaries()
	return nil
}

type CountsArgs struct{}

type CountsReply struct {
	Rooms    int
	Sessions int
}

func (d *Directory) Counts(args *CountsArgs, reply *CountsReply) error {
	reply.Rooms = d.rooms.Count()
	reply.Sessions = d.sessions.Count()
	return nil
}

type RecentRecordsArgs struct {
	Limit int
}

type RecentRecordsReply struct {
	Records []models.GameRecord
}

func (d *Directory) RecentRecords(args *RecentRecordsArgs, reply *RecentRecordsReply) error {
	records, err := d.records.Recent(args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}
