package chat

import (
	"fmt"
	"log"

	"github.com/skomatsu/workchat/internal/database"
)

// Cascade removes dependent rows explicitly because the schema carries no
// cascading foreign keys. Steps run sequentially with no rollback: the first
// failure aborts the remaining steps and is returned so the caller can alert.
// Every step is a filtered delete, so re-running a partially applied cascade
// finishes the job.
type Cascade struct {
	log *log.Logger
	db  database.WorkChatRepository
}

func NewCascade(logger *log.Logger, db database.WorkChatRepository) *Cascade {
	return &Cascade{log: logger, db: db}
}

// DeleteRoom removes a room's memberships, then its messages, then the room
// row itself. Dependents go first so a partial failure never leaves rows
// pointing at a missing room.
func (c *Cascade) DeleteRoom(roomId int) error {
	if err := c.db.DeleteMembershipsByRoom(roomId); err != nil {
		c.log.Printf("cascade aborted: delete memberships for room %d: %v", roomId, err)
		return fmt.Errorf("delete memberships for room %d: %w", roomId, err)
	}

	if err := c.db.DeleteMessagesByRoom(roomId); err != nil {
		c.log.Printf("cascade aborted: delete messages for room %d: %v", roomId, err)
		return fmt.Errorf("delete messages for room %d: %w", roomId, err)
	}

	if err := c.db.DeleteRoom(roomId); err != nil {
		c.log.Printf("cascade aborted: delete room %d: %v", roomId, err)
		return fmt.Errorf("delete room %d: %w", roomId, err)
	}

	return nil
}

// DeleteUser removes a user's memberships and then the user row. Messages the
// user authored are kept.
func (c *Cascade) DeleteUser(userId int) error {
	if err := c.db.DeleteMembershipsByUser(userId); err != nil {
		c.log.Printf("cascade aborted: delete memberships for user %d: %v", userId, err)
		return fmt.Errorf("delete memberships for user %d: %w", userId, err)
	}

	if err := c.db.DeleteUser(userId); err != nil {
		c.log.Printf("cascade aborted: delete user %d: %v", userId, err)
		return fmt.Errorf("delete user %d: %w", userId, err)
	}

	return nil
}
