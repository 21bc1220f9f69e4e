package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/types"
	"github.com/teris-io/shortid"
)

type RoomService struct {
	log     *log.Logger
	db      database.WorkChatRepository
	cascade *Cascade
}

func NewRoomService(logger *log.Logger, db database.WorkChatRepository) *RoomService {
	return &RoomService{
		log:     logger,
		db:      db,
		cascade: NewCascade(logger, db),
	}
}

// Create creates a room with the creator as its leader and records the
// creator's membership. The two writes are separate store calls; a failed
// membership write is surfaced, not rolled back.
func (s *RoomService) Create(name string, leader types.User) (types.Room, error) {
	if strings.TrimSpace(name) == "" {
		return types.Room{}, &ValidationError{Field: "name", Reason: "must not be blank"}
	}

	sid, err := shortid.Generate()
	if err != nil {
		return types.Room{}, fmt.Errorf("generate room id: %w", err)
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		Name:       name,
		LeaderName: leader.Name,
		ExternalId: sid,
	})
	if err != nil {
		return types.Room{}, fmt.Errorf("create room: %w", err)
	}

	if _, err := s.db.CreateMembership(leader.Id, room.Id); err != nil {
		s.log.Printf("room %d created but leader membership failed: %v", room.Id, err)
		return types.Room{}, fmt.Errorf("create leader membership: %w", err)
	}

	return toApiRoom(room), nil
}

// Update renames the room or reassigns its leader. Empty fields keep their
// current values. The leader gate is enforced by the caller via IsLeader.
func (s *RoomService) Update(roomId int, name, leaderName string) (types.Room, error) {
	cur, err := s.db.GetRoomById(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotFound
		}
		return types.Room{}, fmt.Errorf("get room: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = cur.Name
	}
	leaderName = strings.TrimSpace(leaderName)
	if leaderName == "" {
		leaderName = cur.LeaderName
	}

	room, err := s.db.UpdateRoom(database.UpdateRoomParams{
		RoomId:     roomId,
		Name:       name,
		LeaderName: leaderName,
	})
	if err != nil {
		return types.Room{}, fmt.Errorf("update room: %w", err)
	}

	return toApiRoom(room), nil
}

// IsLeader reports whether the user is the room's leader. It fails closed:
// an unresolvable user or room denies.
func (s *RoomService) IsLeader(userId, roomId int) bool {
	u, err := s.db.GetUserById(userId)
	if err != nil {
		return false
	}

	room, err := s.db.GetRoomById(roomId)
	if err != nil {
		return false
	}

	return room.LeaderName == u.Name
}

// Delete removes the room's memberships and messages before the room itself.
func (s *RoomService) Delete(roomId int) error {
	return s.cascade.DeleteRoom(roomId)
}

func (s *RoomService) GetByExternalId(externalId string) (types.Room, error) {
	room, err := s.db.GetRoomByExternalId(externalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotFound
		}
		return types.Room{}, fmt.Errorf("get room: %w", err)
	}

	return toApiRoom(room), nil
}

func toApiRoom(r database.Room) types.Room {
	return types.Room{
		Id:         r.Id,
		ExternalId: r.ExternalId,
		Name:       r.Name,
		LeaderName: r.LeaderName,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
