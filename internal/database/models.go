package database

import "time"

type User struct {
	Id             int
	Name           string
	Password       string
	Email          string
	EmployeeId     string
	EmployeeStatus int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Room struct {
	Id         int
	ExternalId string
	Name       string
	LeaderName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type UserRoom struct {
	Id        int
	UserId    int
	RoomId    int
	Room      Room
	CreatedAt time.Time
}

type UserMessage struct {
	Id        int
	RoomId    int
	UserId    int
	Message   string
	CreatedAt time.Time
}

type CreateUserParams struct {
	Name           string
	Password       string
	Email          string
	EmployeeId     string
	EmployeeStatus int
}

type CreateRoomParams struct {
	Name       string `json:"name"`
	LeaderName string `json:"-"`
	ExternalId string `json:"external_id"`
}

type UpdateRoomParams struct {
	RoomId     int
	Name       string
	LeaderName string
}
