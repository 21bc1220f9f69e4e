package database

// WorkChatRepository is the storage port for the four collections backing the
// chat service: users, rooms, user_rooms and user_messages. Every delete is a
// targeted filter-delete and is a no-op when nothing matches the filter.
type WorkChatRepository interface {
	Ping() error

	CreateUser(params CreateUserParams) (User, error)
	GetUserById(userId int) (User, error)
	GetUserByEmail(email string) (User, error)
	ListUsers() ([]User, error)
	UpdateUserName(userId int, name string) error
	UpdateUserPassword(userId int, password string) error
	UpdateUserStatus(userId int, status int) error
	DeleteUser(userId int) error

	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomById(roomId int) (Room, error)
	GetRoomByExternalId(externalId string) (Room, error)
	UpdateRoom(params UpdateRoomParams) (Room, error)
	DeleteRoom(roomId int) error

	CreateMembership(userId, roomId int) (UserRoom, error)
	MembershipExists(userId, roomId int) bool
	ListMembershipsByUser(userId int) ([]UserRoom, error)
	DeleteMembership(userId, roomId int) error
	DeleteMembershipsByUser(userId int) error
	DeleteMembershipsByRoom(roomId int) error

	CreateMessage(msg UserMessage) error
	ListMessagesByRoom(roomId int) ([]UserMessage, error)
	DeleteMessagesByRoom(roomId int) error
}
