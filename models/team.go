// models/team.go
package models

import "time"

type Team struct {
	ID        uint                `json:"id" gorm:"primaryKey"`
	Name      string              `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Password  string              `json:"-" gorm:"not null;size:100"`
	CreatedBy uint                `json:"created_by" gorm:"index"`
	Members   []TeamMember        `json:"members,omitempty" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	Progress  []TeamRoundProgress `json:"progress,omitempty" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (Team) TableName() string {
	return "teams"
}
