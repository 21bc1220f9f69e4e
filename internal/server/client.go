package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skomatsu/workchat/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one websocket connection for an authenticated user.
type Client struct {
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	user       types.User
	send       chan *ServerMessage
	rooms      map[string]*Room
	roomsLock  sync.RWMutex
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	return &Client{
		conn:       conn,
		chatServer: cs,
		log:        l,
		user:       user,
		send:       make(chan *ServerMessage, 256),
		rooms:      make(map[string]*Room),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		switch {
		case msg.Join != nil:
			c.joinRoom(&msg)
		case msg.Leave != nil:
			c.leaveRoom(&msg)
		case msg.Publish != nil:
			c.publish(&msg)
		default:
			c.queueMessage(ErrInvalidMessage(msg.Id))
		}
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Println("failed to send message to client, channel is full")
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) cleanup() {
	c.chatServer.deRegisterChan <- c
	c.leaveAllRooms()
	c.stopClient()
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) leaveAllRooms() {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	for _, room := range c.rooms {
		room.leaveChan <- &ClientMessage{
			Leave:  &Leave{RoomId: room.externalId},
			UserId: c.user.Id,
			client: c,
		}
	}
}

func (c *Client) joinRoom(msg *ClientMessage) {
	select {
	case c.chatServer.joinChan <- msg:
	default:
		c.log.Printf("joinChan full")
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) leaveRoom(msg *ClientMessage) {
	r := c.getRoom(msg.Leave.RoomId)
	if r == nil {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	select {
	case r.leaveChan <- msg:
	default:
		c.log.Printf("leaveChan full for room %q", r.externalId)
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) publish(msg *ClientMessage) {
	r := c.getRoom(msg.Publish.RoomId)
	if r == nil {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	select {
	case r.publishChan <- msg:
	default:
		c.log.Printf("publishChan full for room %q", r.externalId)
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) addRoom(r *Room) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	c.rooms[r.externalId] = r
}

func (c *Client) delRoom(id string) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	delete(c.rooms, id)
}

func (c *Client) getRoom(id string) *Room {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	if room, ok := c.rooms[id]; ok {
		return room
	}

	return nil
}
