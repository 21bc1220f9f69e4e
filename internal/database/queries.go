package database

import (
	"time"
)

func (db *PgWorkChatRepository) CreateUser(params CreateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (name, password, email, employee_id, employee_status, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id, name, password, email, employee_id, employee_status, created_at, updated_at",
		params.Name,
		params.Password,
		params.Email,
		params.EmployeeId,
		params.EmployeeStatus,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.Password,
		&u.Email,
		&u.EmployeeId,
		&u.EmployeeStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgWorkChatRepository) GetUserById(userId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, password, email, employee_id, employee_status, created_at, updated_at FROM users "+
			"WHERE id = $1 LIMIT 1",
		userId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.Password,
		&u.Email,
		&u.EmployeeId,
		&u.EmployeeStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgWorkChatRepository) GetUserByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, password, email, employee_id, employee_status, created_at, updated_at FROM users "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.Password,
		&u.Email,
		&u.EmployeeId,
		&u.EmployeeStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgWorkChatRepository) ListUsers() ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, email, employee_id, employee_status, created_at, updated_at FROM users",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Name, &u.Email, &u.EmployeeId, &u.EmployeeStatus, &u.CreatedAt, &u.UpdatedAt); err != nil {
			break
		}

		users = append(users, u)
	}
	return users, err
}

func (db *PgWorkChatRepository) UpdateUserName(userId int, name string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET name = $2, updated_at = $3 WHERE id = $1",
		userId,
		name,
		time.Now().UTC(),
	)

	return err
}

func (db *PgWorkChatRepository) UpdateUserPassword(userId int, password string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET password = $2, updated_at = $3 WHERE id = $1",
		userId,
		password,
		time.Now().UTC(),
	)

	return err
}

func (db *PgWorkChatRepository) UpdateUserStatus(userId int, status int) error {
	_, err := db.conn.Exec(
		"UPDATE users SET employee_status = $2, updated_at = $3 WHERE id = $1",
		userId,
		status,
		time.Now().UTC(),
	)

	return err
}

func (db *PgWorkChatRepository) DeleteUser(userId int) error {
	_, err := db.conn.Exec("DELETE FROM users WHERE id = $1", userId)

	return err
}

func (db *PgWorkChatRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	res := db.conn.QueryRow(
		"INSERT INTO rooms (name, external_id, leader_name, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, name, external_id, leader_name, created_at, updated_at",
		params.Name,
		params.ExternalId,
		params.LeaderName,
		time.Now().UTC(),
	)

	var room Room
	err := res.Scan(
		&room.Id,
		&room.Name,
		&room.ExternalId,
		&room.LeaderName,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgWorkChatRepository) GetRoomById(roomId int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, leader_name, created_at, updated_at FROM rooms "+
			"WHERE id = $1 LIMIT 1",
		roomId,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.LeaderName,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgWorkChatRepository) GetRoomByExternalId(externalId string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, leader_name, created_at, updated_at FROM rooms "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.LeaderName,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgWorkChatRepository) UpdateRoom(params UpdateRoomParams) (Room, error) {
	res := db.conn.QueryRow(
		"UPDATE rooms SET name = $2, leader_name = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, external_id, name, leader_name, created_at, updated_at",
		params.RoomId,
		params.Name,
		params.LeaderName,
		time.Now().UTC(),
	)

	var room Room
	err := res.Scan(
		&room.Id,
		&room.ExternalId,
		&room.Name,
		&room.LeaderName,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgWorkChatRepository) DeleteRoom(roomId int) error {
	_, err := db.conn.Exec("DELETE FROM rooms WHERE id = $1", roomId)

	return err
}

func (db *PgWorkChatRepository) CreateMembership(userId, roomId int) (UserRoom, error) {
	res := db.conn.QueryRow(
		"INSERT INTO user_rooms (user_id, room_id, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, user_id, room_id, created_at",
		userId,
		roomId,
		time.Now().UTC(),
	)

	var ur UserRoom
	err := res.Scan(
		&ur.Id,
		&ur.UserId,
		&ur.RoomId,
		&ur.CreatedAt,
	)

	return ur, err
}

func (db *PgWorkChatRepository) MembershipExists(userId, roomId int) bool {
	res := db.conn.QueryRow(
		"SELECT id FROM user_rooms WHERE user_id = $1 AND room_id = $2 LIMIT 1",
		userId,
		roomId,
	)

	var id int
	err := res.Scan(&id)

	return err == nil
}

func (db *PgWorkChatRepository) ListMembershipsByUser(userId int) ([]UserRoom, error) {
	// ur.id order is the ledger's insertion order.
	rows, err := db.conn.Query(
		"SELECT ur.id, ur.user_id, ur.room_id, ur.created_at, r.id, r.external_id, r.name, r.leader_name "+
			"FROM user_rooms ur JOIN rooms r ON r.id = ur.room_id WHERE ur.user_id = $1 ORDER BY ur.id",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []UserRoom
	for rows.Next() {
		var ur UserRoom
		if err = rows.Scan(&ur.Id, &ur.UserId, &ur.RoomId, &ur.CreatedAt,
			&ur.Room.Id, &ur.Room.ExternalId, &ur.Room.Name, &ur.Room.LeaderName); err != nil {
			break
		}

		memberships = append(memberships, ur)
	}
	return memberships, err
}

func (db *PgWorkChatRepository) DeleteMembership(userId, roomId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM user_rooms WHERE user_id = $1 AND room_id = $2",
		userId,
		roomId,
	)

	return err
}

func (db *PgWorkChatRepository) DeleteMembershipsByUser(userId int) error {
	_, err := db.conn.Exec("DELETE FROM user_rooms WHERE user_id = $1", userId)

	return err
}

func (db *PgWorkChatRepository) DeleteMembershipsByRoom(roomId int) error {
	_, err := db.conn.Exec("DELETE FROM user_rooms WHERE room_id = $1", roomId)

	return err
}

func (db *PgWorkChatRepository) CreateMessage(msg UserMessage) error {
	_, err := db.conn.Exec(
		"INSERT INTO user_messages (room_id, user_id, message, created_at) "+
			"VALUES ($1, $2, $3, $4)",
		msg.RoomId,
		msg.UserId,
		msg.Message,
		time.Now().UTC(),
	)

	return err
}

func (db *PgWorkChatRepository) ListMessagesByRoom(roomId int) ([]UserMessage, error) {
	rows, err := db.conn.Query(
		"SELECT id, room_id, user_id, message, created_at FROM user_messages "+
			"WHERE room_id = $1 ORDER BY id",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []UserMessage
	for rows.Next() {
		var msg UserMessage
		if err = rows.Scan(&msg.Id, &msg.RoomId, &msg.UserId, &msg.Message, &msg.CreatedAt); err != nil {
			break
		}

		messages = append(messages, msg)
	}
	return messages, err
}

func (db *PgWorkChatRepository) DeleteMessagesByRoom(roomId int) error {
	_, err := db.conn.Exec("DELETE FROM user_messages WHERE room_id = $1", roomId)

	return err
}
