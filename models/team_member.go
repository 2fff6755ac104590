// models/team_member.go
package models

import "time"

type TeamMember struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TeamID    uint      `json:"team_id" gorm:"not null;index"`
	Team      *Team     `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	MemberUID string    `json:"member_uid" gorm:"uniqueIndex;size:36"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null;size:100"`
	Email     string    `json:"email" gorm:"size:255"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
