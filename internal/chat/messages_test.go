package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestListMessages(t *testing.T) {
	now := time.Now().UTC()

	mockRepo := &database.MockWorkChatRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListMessagesByRoom", 4).Return([]database.UserMessage{
		{Id: 1, RoomId: 4, UserId: 2, Message: "first", CreatedAt: now},
		{Id: 2, RoomId: 4, UserId: 3, Message: "second", CreatedAt: now.Add(time.Second)},
	}, nil).Once()

	svc := NewMessageService(testutil.TestLogger(t), mockRepo)
	messages, err := svc.ListMessages(4)

	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "second", messages[1].Message)
	assert.Equal(t, 2, messages[0].UserId)
}

func TestMessageWriterAppend(t *testing.T) {
	mockRepo := &database.MockWorkChatRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("CreateMessage", database.UserMessage{
		RoomId:  4,
		UserId:  2,
		Message: "hello",
	}).Return(nil).Once()

	svc := NewMessageService(testutil.TestLogger(t), mockRepo)
	w := svc.NewWriter(4, 2)

	assert.NoError(t, w.Append("hello"))
	assert.Len(t, mockRepo.Calls, 1, "one append is one store write")
}

func TestMessageWriterAppendTwiceWritesTwice(t *testing.T) {
	mockRepo := &database.MockWorkChatRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("CreateMessage", database.UserMessage{RoomId: 4, UserId: 2, Message: "one"}).Return(nil).Once()
	mockRepo.On("CreateMessage", database.UserMessage{RoomId: 4, UserId: 2, Message: "two"}).Return(nil).Once()

	svc := NewMessageService(testutil.TestLogger(t), mockRepo)
	w := svc.NewWriter(4, 2)

	assert.NoError(t, w.Append("one"))
	assert.NoError(t, w.Append("two"))
}

func TestMessageWriterAppendError(t *testing.T) {
	dbErr := errors.New("db error")

	mockRepo := &database.MockWorkChatRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("CreateMessage", database.UserMessage{RoomId: 4, UserId: 2, Message: "hello"}).
		Return(dbErr).Once()

	svc := NewMessageService(testutil.TestLogger(t), mockRepo)
	w := svc.NewWriter(4, 2)

	assert.ErrorIs(t, w.Append("hello"), dbErr)
}
