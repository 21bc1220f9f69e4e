package database

import (
	"github.com/stretchr/testify/mock"
)

type MockWorkChatRepository struct {
	mock.Mock
}

func (m *MockWorkChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockWorkChatRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockWorkChatRepository) GetUserById(userId int) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockWorkChatRepository) GetUserByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockWorkChatRepository) ListUsers() ([]User, error) {
	args := m.Called()
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockWorkChatRepository) UpdateUserName(userId int, name string) error {
	args := m.Called(userId, name)
	return args.Error(0)
}
func (m *MockWorkChatRepository) UpdateUserPassword(userId int, password string) error {
	args := m.Called(userId, password)
	return args.Error(0)
}
func (m *MockWorkChatRepository) UpdateUserStatus(userId int, status int) error {
	args := m.Called(userId, status)
	return args.Error(0)
}
func (m *MockWorkChatRepository) DeleteUser(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockWorkChatRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWorkChatRepository) GetRoomById(roomId int) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWorkChatRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWorkChatRepository) UpdateRoom(params UpdateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWorkChatRepository) DeleteRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockWorkChatRepository) CreateMembership(userId, roomId int) (UserRoom, error) {
	args := m.Called(userId, roomId)
	return args.Get(0).(UserRoom), args.Error(1)
}
func (m *MockWorkChatRepository) MembershipExists(userId, roomId int) bool {
	args := m.Called(userId, roomId)
	return args.Bool(0)
}
func (m *MockWorkChatRepository) ListMembershipsByUser(userId int) ([]UserRoom, error) {
	args := m.Called(userId)
	return args.Get(0).([]UserRoom), args.Error(1)
}
func (m *MockWorkChatRepository) DeleteMembership(userId, roomId int) error {
	args := m.Called(userId, roomId)
	return args.Error(0)
}
func (m *MockWorkChatRepository) DeleteMembershipsByUser(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockWorkChatRepository) DeleteMembershipsByRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockWorkChatRepository) CreateMessage(msg UserMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}
func (m *MockWorkChatRepository) ListMessagesByRoom(roomId int) ([]UserMessage, error) {
	args := m.Called(roomId)
	return args.Get(0).([]UserMessage), args.Error(1)
}
func (m *MockWorkChatRepository) DeleteMessagesByRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
