// models/activity.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity types recorded in the game activity feed.
const (
	ActivityTeamCreated    = "team_created"
	ActivityMemberJoined   = "member_joined"
	ActivityRoundStarted   = "round_started"
	ActivityPageCompleted  = "page_completed"
	ActivityRoundCompleted = "round_completed"
	ActivityBugFixed       = "bug_fixed"
	ActivityTimeOver       = "time_over"
)

// GameActivity is an append-only audit entry for team events.
type GameActivity struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TeamID       uint           `json:"team_id" gorm:"not null;index"`
	Team         *Team          `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	ActivityType string         `json:"activity_type" gorm:"not null;size:50;index"`
	Description  string         `json:"description" gorm:"size:255"`
	Metadata     datatypes.JSON `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at" gorm:"index"`
}

func (GameActivity) TableName() string {
	return "game_activities"
}
