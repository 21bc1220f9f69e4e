package server

import (
	"net/http"
	"time"

	"github.com/skomatsu/workchat/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	Publish *Publish `json:"publish,omitempty"`
	Join    *Join    `json:"join,omitempty"`
	Leave   *Leave   `json:"leave,omitempty"`
	UserId  int      `json:"-"`
	client  *Client  `json:"-"`
}

type Publish struct {
	RoomId  string `json:"room_id"`
	Message string `json:"message"`
}

type Join struct {
	RoomId string `json:"room_id"`
}

type Leave struct {
	// Unsubscribe also removes the caller's membership row, not just the
	// live connection.
	Unsubscribe bool   `json:"unsubscribe,omitempty"`
	RoomId      string `json:"room_id"`
}

type ServerMessage struct {
	BaseMessage
	Response     *Response      `json:"response,omitempty"`
	Message      *types.Message `json:"message,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
	SkipClient   *Client        `json:"-"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

type Notification struct {
	MembershipChange *MembershipChange `json:"membership_change,omitempty"`
	RoomDeleted      *RoomDeleted      `json:"room_deleted,omitempty"`
}

type MembershipChange struct {
	RoomId string     `json:"room_id"`
	Joined bool       `json:"joined"`
	User   types.User `json:"user"`
}

type RoomDeleted struct {
	RoomId string `json:"room_id"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func ErrRoomNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
