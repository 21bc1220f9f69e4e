package server

import (
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/skomatsu/workchat/internal/chat"
	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/stats"
)

// ChatServer is the real-time transport hub. It loads a live Room per chat
// room on demand, routes join requests to it, and unloads rooms when they go
// idle or are deleted over the API.
type ChatServer struct {
	log            *log.Logger
	db             database.WorkChatRepository
	memberships    *chat.MembershipService
	messages       *chat.MessageService
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	joinChan       chan *ClientMessage
	registerChan   chan *Client
	deRegisterChan chan *Client
	unloadRoomChan chan unloadRoomRequest
	rooms          map[string]*Room
	stop           chan struct{}
	done           chan struct{}
}

type unloadRoomRequest struct {
	roomId  string
	deleted bool
}

func NewChatServer(logger *log.Logger, db database.WorkChatRepository, sp stats.StatsProvider) (*ChatServer, error) {
	users := chat.NewUserService(logger, db)

	cs := &ChatServer{
		log:            logger,
		db:             db,
		memberships:    chat.NewMembershipService(logger, db, users),
		messages:       chat.NewMessageService(logger, db),
		stats:          sp,
		clients:        make(map[*Client]struct{}),
		joinChan:       make(chan *ClientMessage),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		unloadRoomChan: make(chan unloadRoomRequest, 16),
		rooms:          make(map[string]*Room),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	sp.RegisterMetric(stats.ActiveClients)
	sp.RegisterMetric(stats.ActiveRooms)
	sp.RegisterMetric(stats.MessagesPersisted)

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case joinMsg := <-cs.joinChan:
			cs.handleJoinRequest(joinMsg)
		case client := <-cs.registerChan:
			cs.log.Printf("adding connection from %q", client.user.Name)
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection from %q", client.user.Name)
			cs.removeClient(client)
		case req := <-cs.unloadRoomChan:
			cs.handleUnloadRoom(req)
		case <-cs.stop:
			cs.log.Println("shutting down rooms")
			for _, r := range cs.rooms {
				r.exit <- exitReq{done: make(chan bool, 1)}
				<-r.done
			}

			close(cs.done)
			return
		}
	}
}

// handleJoinRequest routes a join to the live room, loading it from the
// store when it isn't resident yet.
func (cs *ChatServer) handleJoinRequest(joinMsg *ClientMessage) {
	if room, ok := cs.rooms[joinMsg.Join.RoomId]; ok {
		select {
		case room.joinChan <- joinMsg:
		default:
			cs.log.Printf("join channel full on room %q", room.externalId)
			joinMsg.client.queueMessage(ErrServiceUnavailable(joinMsg.Id))
		}
		return
	}

	dbRoom, err := cs.db.GetRoomByExternalId(joinMsg.Join.RoomId)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			cs.log.Println("GetRoomByExternalId:", err)
		}
		joinMsg.client.queueMessage(ErrRoomNotFound(joinMsg.Id))
		return
	}

	room := newRoom(dbRoom, cs)
	cs.rooms[room.externalId] = room
	cs.stats.Incr(stats.ActiveRooms)
	room.joinChan <- joinMsg

	go room.start()
}

func (cs *ChatServer) handleUnloadRoom(req unloadRoomRequest) {
	r, ok := cs.rooms[req.roomId]
	if !ok {
		return
	}

	cs.log.Printf("unloading room %q", r.externalId)
	delete(cs.rooms, req.roomId)
	cs.stats.Decr(stats.ActiveRooms)

	done := make(chan bool, 1)
	r.exit <- exitReq{deleted: req.deleted, done: done}
	<-done
}

// UnloadRoom asks the hub to drop the live room, notifying connected clients
// when the room was deleted. Safe to call for rooms that were never loaded.
func (cs *ChatServer) UnloadRoom(roomId string, deleted bool) {
	select {
	case cs.unloadRoomChan <- unloadRoomRequest{roomId: roomId, deleted: deleted}:
	case <-cs.done:
	}
}

func (cs *ChatServer) RegisterClient(c *Client) {
	cs.registerChan <- c
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
	cs.stats.Incr(stats.ActiveClients)
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	if _, ok := cs.clients[c]; !ok {
		return
	}
	delete(cs.clients, c)
	cs.stats.Decr(stats.ActiveClients)
}

func (cs *ChatServer) Shutdown() {
	cs.log.Println("received shutdown signal")
	cs.clientsLock.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.clientsLock.Unlock()

	close(cs.stop)

	<-cs.done
}
