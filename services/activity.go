// services/activity.go - Append-only activity logging
package services

import (
	"encoding/json"
	"log"

	"bughunt/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLogger appends GameActivity records. The core only ever writes
// them; the admin surface reads them back.
type ActivityLogger struct {
	db *gorm.DB
}

func NewActivityLogger(db *gorm.DB) *ActivityLogger {
	return &ActivityLogger{db: db}
}

// Log appends one activity entry. Metadata may be nil.
func (l *ActivityLogger) Log(teamID uint, activityType, description string, metadata map[string]interface{}) error {
	entry := models.GameActivity{
		TeamID:       teamID,
		ActivityType: activityType,
		Description:  description,
	}

	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("Failed to encode activity metadata: %v", err)
		} else {
			entry.Metadata = datatypes.JSON(data)
		}
	}

	if err := l.db.Create(&entry).Error; err != nil {
		log.Printf("Failed to write activity log (team=%d type=%s): %v", teamID, activityType, err)
		return err
	}
	return nil
}

// Recent returns the newest entries across all teams.
func (l *ActivityLogger) Recent(limit int) ([]models.GameActivity, error) {
	var entries []models.GameActivity
	err := l.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// ForTeam returns the newest entries for one team.
func (l *ActivityLogger) ForTeam(teamID uint, limit int) ([]models.GameActivity, error) {
	var entries []models.GameActivity
	err := l.db.Where("team_id = ?", teamID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
