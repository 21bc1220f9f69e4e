package types

import (
	"time"
)

type User struct {
	Id             int       `json:"id"`
	Name           string    `json:"name"`
	Password       string    `json:"-"`
	Email          string    `json:"email,omitempty"`
	EmployeeId     string    `json:"employee_id,omitempty"`
	EmployeeStatus int       `json:"employee_status"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id         int       `json:"id"`
	ExternalId string    `json:"external_id"`
	Name       string    `json:"name"`
	LeaderName string    `json:"leader_name"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type Membership struct {
	Id        int       `json:"id"`
	UserId    int       `json:"user_id"`
	Room      Room      `json:"room"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Message struct {
	Id        int       `json:"id"`
	RoomId    int       `json:"room_id"`
	UserId    int       `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
