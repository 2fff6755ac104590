// models/round.go
package models

import "time"

// Round is a competition round definition. Opening a round stamps its
// start time; sessions compute their own deadlines from DurationMinutes.
type Round struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	RoundNumber     int        `json:"round_number" gorm:"uniqueIndex;not null"`
	IsOpen          bool       `json:"is_open" gorm:"default:false"`
	DurationMinutes int        `json:"duration_minutes" gorm:"default:60"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Round) TableName() string {
	return "rounds"
}

// IsActive reports whether the round is open and inside its play window
// at the given instant. A round with no start time has not begun.
func (r *Round) IsActive(now time.Time) bool {
	if !r.IsOpen || r.StartTime == nil {
		return false
	}
	if now.Before(*r.StartTime) {
		return false
	}
	if r.EndTime != nil && now.After(*r.EndTime) {
		return false
	}
	return true
}
