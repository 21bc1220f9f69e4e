package chat

import (
	"fmt"
	"log"

	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/types"
)

type MembershipService struct {
	log   *log.Logger
	db    database.WorkChatRepository
	users *UserService
}

func NewMembershipService(logger *log.Logger, db database.WorkChatRepository, users *UserService) *MembershipService {
	return &MembershipService{log: logger, db: db, users: users}
}

// ListRooms returns the user's memberships in the ledger's insertion order.
func (s *MembershipService) ListRooms(userId int) ([]types.Membership, error) {
	dbMemberships, err := s.db.ListMembershipsByUser(userId)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	var memberships []types.Membership
	for _, m := range dbMemberships {
		memberships = append(memberships, types.Membership{
			Id:        m.Id,
			UserId:    m.UserId,
			Room:      toApiRoom(m.Room),
			CreatedAt: m.CreatedAt,
		})
	}
	return memberships, nil
}

func (s *MembershipService) Join(userId, roomId int) error {
	if _, err := s.db.CreateMembership(userId, roomId); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (s *MembershipService) Leave(userId, roomId int) error {
	if err := s.db.DeleteMembership(userId, roomId); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func (s *MembershipService) Exists(userId, roomId int) bool {
	return s.db.MembershipExists(userId, roomId)
}

// CanCreateRoom gates room creation on the admin tiers.
func (s *MembershipService) CanCreateRoom(userId int) bool {
	return s.users.IsAdmin(userId)
}
