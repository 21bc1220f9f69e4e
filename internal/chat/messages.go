package chat

import (
	"fmt"
	"log"

	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/types"
)

type MessageService struct {
	log *log.Logger
	db  database.WorkChatRepository
}

func NewMessageService(logger *log.Logger, db database.WorkChatRepository) *MessageService {
	return &MessageService{log: logger, db: db}
}

// ListMessages returns a room's messages in creation order. The ledger is
// append-only: rows are never reordered or mutated in place.
func (s *MessageService) ListMessages(roomId int) ([]types.Message, error) {
	dbMessages, err := s.db.ListMessagesByRoom(roomId)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var messages []types.Message
	for _, m := range dbMessages {
		messages = append(messages, types.Message{
			Id:        m.Id,
			RoomId:    m.RoomId,
			UserId:    m.UserId,
			Message:   m.Message,
			Timestamp: m.CreatedAt,
		})
	}
	return messages, nil
}

// NewWriter binds a (room, user) pair once, at the start of a chat session.
// The returned writer is the steady-state write path for that session.
func (s *MessageService) NewWriter(roomId, userId int) *MessageWriter {
	return &MessageWriter{db: s.db, roomId: roomId, userId: userId}
}

// MessageWriter appends messages for one (room, user) pair. It holds no
// mutable state, so concurrent Append calls are independent writes whose
// relative order is the store's insertion order.
type MessageWriter struct {
	db     database.WorkChatRepository
	roomId int
	userId int
}

// Append persists one message tagged with the bound room and user. It does
// nothing else; fan-out to other sessions is the transport's concern.
func (w *MessageWriter) Append(text string) error {
	return w.db.CreateMessage(database.UserMessage{
		RoomId:  w.roomId,
		UserId:  w.userId,
		Message: text,
	})
}
