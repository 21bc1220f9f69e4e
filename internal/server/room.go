package server

import (
	"log"
	"sync"
	"time"

	"github.com/skomatsu/workchat/internal/chat"
	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/stats"
	"github.com/skomatsu/workchat/internal/types"
)

const idleRoomTimeout = time.Minute * 5

type exitReq struct {
	deleted bool
	done    chan bool
}

// Room is the live counterpart of one chat room. All room state is owned by
// the start goroutine; clients talk to it through the channels.
type Room struct {
	id          int
	externalId  string
	name        string
	cs          *ChatServer
	joinChan    chan *ClientMessage
	leaveChan   chan *ClientMessage
	publishChan chan *ClientMessage
	clients     map[*Client]struct{}
	// writers holds one message writer per joined client, bound to this
	// room and the client's user at join time.
	writers    map[*Client]*chat.MessageWriter
	clientLock sync.RWMutex
	log        *log.Logger
	// killTimer unloads the room when it has been empty for a while
	killTimer *time.Timer
	exit      chan exitReq
	done      chan struct{}
}

func newRoom(dbRoom database.Room, cs *ChatServer) *Room {
	return &Room{
		id:          dbRoom.Id,
		externalId:  dbRoom.ExternalId,
		name:        dbRoom.Name,
		cs:          cs,
		joinChan:    make(chan *ClientMessage, 256),
		leaveChan:   make(chan *ClientMessage, 256),
		publishChan: make(chan *ClientMessage, 256),
		clients:     make(map[*Client]struct{}),
		writers:     make(map[*Client]*chat.MessageWriter),
		log:         cs.log,
		exit:        make(chan exitReq),
		done:        make(chan struct{}),
	}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.externalId)
	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()

	for {
		select {
		case join := <-r.joinChan:
			r.handleJoin(join)
		case leaveMsg := <-r.leaveChan:
			r.handleLeave(leaveMsg)
		case msg := <-r.publishChan:
			r.handlePublish(msg)
		case <-r.killTimer.C:
			r.log.Printf("room %q timed out", r.externalId)
			r.cs.unloadRoomChan <- unloadRoomRequest{roomId: r.externalId}
		case e := <-r.exit:
			r.handleRoomExit(e)
			return
		}
	}
}

func (r *Room) handleJoin(join *ClientMessage) {
	r.killTimer.Stop()

	c := join.client
	if !r.cs.memberships.Exists(c.user.Id, r.id) {
		r.log.Printf("creating membership for user %q in room %q", c.user.Name, r.externalId)
		if err := r.cs.memberships.Join(c.user.Id, r.id); err != nil {
			if len(r.clients) == 0 {
				r.killTimer.Reset(idleRoomTimeout)
			}
			r.log.Println("Join:", err)
			c.queueMessage(ErrInternalError(join.Id))
			return
		}

		r.broadcast(&ServerMessage{
			Notification: &Notification{
				MembershipChange: &MembershipChange{
					RoomId: r.externalId,
					Joined: true,
					User:   types.User{Id: c.user.Id, Name: c.user.Name},
				},
			},
		})
	}

	history, err := r.cs.messages.ListMessages(r.id)
	if err != nil {
		r.log.Println("ListMessages:", err)
		c.queueMessage(ErrInternalError(join.Id))
		return
	}

	r.addClient(c)

	c.queueMessage(NoErrOK(join.Id, map[string]any{
		"room": types.Room{
			Id:         r.id,
			ExternalId: r.externalId,
			Name:       r.name,
		},
		"messages": history,
	}))
}

func (r *Room) handleLeave(leaveMsg *ClientMessage) {
	c := leaveMsg.client

	if leaveMsg.Leave.Unsubscribe {
		r.log.Printf("removing membership of %q in room %q", c.user.Name, r.externalId)
		if err := r.cs.memberships.Leave(leaveMsg.UserId, r.id); err != nil {
			r.log.Println("Leave:", err)
			c.queueMessage(ErrInternalError(leaveMsg.Id))
			return
		}

		r.broadcast(&ServerMessage{
			Notification: &Notification{
				MembershipChange: &MembershipChange{
					RoomId: r.externalId,
					Joined: false,
					User:   types.User{Id: c.user.Id, Name: c.user.Name},
				},
			},
		})
	}

	r.removeClient(c)
	c.queueMessage(NoErrOK(leaveMsg.Id, nil))
}

// handlePublish appends the message through the writer bound at join time and
// fans it out to the connected clients.
func (r *Room) handlePublish(msg *ClientMessage) {
	r.clientLock.RLock()
	writer := r.writers[msg.client]
	r.clientLock.RUnlock()

	if writer == nil {
		msg.client.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	if err := writer.Append(msg.Publish.Message); err != nil {
		r.log.Println("error saving message:", err)
		msg.client.queueMessage(ErrInternalError(msg.Id))
		return
	}

	r.cs.stats.Incr(stats.MessagesPersisted)
	msg.client.queueMessage(NoErrAccepted(msg.Id))

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{
			Id:        msg.Id,
			Timestamp: msg.Timestamp,
		},
		Message: &types.Message{
			RoomId:    r.id,
			UserId:    msg.UserId,
			Message:   msg.Publish.Message,
			Timestamp: msg.Timestamp,
		},
		SkipClient: msg.client,
	})
}

func (r *Room) handleRoomExit(e exitReq) {
	r.log.Printf("room %q is exiting", r.externalId)
	if e.deleted {
		r.broadcast(&ServerMessage{
			BaseMessage: BaseMessage{
				Timestamp: Now(),
			},
			Notification: &Notification{
				RoomDeleted: &RoomDeleted{RoomId: r.externalId},
			},
		})
	}

	r.clientLock.Lock()
	for c := range r.clients {
		c.delRoom(r.externalId)
	}
	r.clients = make(map[*Client]struct{})
	r.writers = make(map[*Client]*chat.MessageWriter)
	r.clientLock.Unlock()

	close(r.done)

	if e.done != nil {
		e.done <- true
	}
}

func (r *Room) addClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	r.clients[c] = struct{}{}
	r.writers[c] = r.cs.messages.NewWriter(r.id, c.user.Id)

	c.addRoom(r)
}

func (r *Room) removeClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if _, ok := r.clients[c]; !ok {
		r.log.Printf("client %q not found in room %q", c.user.Name, r.externalId)
		return
	}

	delete(r.clients, c)
	delete(r.writers, c)
	c.delRoom(r.externalId)

	if len(r.clients) == 0 {
		r.log.Printf("no clients in %q, starting kill timer", r.externalId)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) broadcast(msg *ServerMessage) {
	msg.Timestamp = Now()

	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}
