// models/progress.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session status values for TeamRoundProgress.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusTimeOver   = "time_over"
	StatusQualified  = "qualified"
)

// TeamRoundProgress is one team's session in one round. Score always
// equals 10 points per completed page record; drift is repaired on read.
type TeamRoundProgress struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	TeamID          uint           `json:"team_id" gorm:"not null;uniqueIndex:idx_team_round"`
	Team            *Team          `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	RoundID         uint           `json:"round_id" gorm:"not null;uniqueIndex:idx_team_round"`
	Round           *Round         `json:"round,omitempty" gorm:"foreignKey:RoundID"`
	CurrentPage     int            `json:"current_page" gorm:"default:1"`
	Score           int            `json:"score" gorm:"default:0"`
	Status          string         `json:"status" gorm:"default:not_started;size:20"`
	IsActive        bool           `json:"is_active" gorm:"default:false"`
	StartTime       *time.Time     `json:"start_time"`
	EndTime         *time.Time     `json:"end_time"`
	DurationSeconds int            `json:"duration_seconds" gorm:"default:0"`
	IsQualified     bool           `json:"is_qualified" gorm:"default:false"`
	Pages           []PageProgress `json:"pages,omitempty" gorm:"foreignKey:TeamRoundID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (TeamRoundProgress) TableName() string {
	return "team_round_progress"
}

// PageProgress is one page's completion record within a session.
type PageProgress struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	TeamRoundID      uint           `json:"team_round_id" gorm:"not null;uniqueIndex:idx_round_page"`
	PageNumber       int            `json:"page_number" gorm:"not null;uniqueIndex:idx_round_page"`
	BugsFixed        datatypes.JSON `json:"bugs_fixed"`
	Completed        bool           `json:"completed" gorm:"default:false"`
	StartedAt        time.Time      `json:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at"`
	TimeTakenSeconds int            `json:"time_taken_seconds" gorm:"default:0"`
}

func (PageProgress) TableName() string {
	return "page_progress"
}
