// services/progress.go - Authoritative store for team round/page progress
package services

import (
	"errors"
	"fmt"

	"bughunt/models"

	"gorm.io/gorm"
)

// ProgressStore owns TeamRoundProgress and PageProgress records and keeps
// the score invariant intact: a session's score always equals
// pointsPerPage × its completed page count. Reconciliation repairs drift
// caused by out-of-band deletions (admin cleanup).
type ProgressStore struct {
	db            *gorm.DB
	pointsPerPage int
	activity      *ActivityLogger
}

func NewProgressStore(db *gorm.DB, pointsPerPage int, activity *ActivityLogger) *ProgressStore {
	return &ProgressStore{db: db, pointsPerPage: pointsPerPage, activity: activity}
}

// GetOrCreateSession returns the session for (team, round), creating it
// with not_started defaults when missing. The bool reports creation.
func (s *ProgressStore) GetOrCreateSession(teamID, roundID uint) (*models.TeamRoundProgress, bool, error) {
	var progress models.TeamRoundProgress
	err := s.db.Where("team_id = ? AND round_id = ?", teamID, roundID).First(&progress).Error
	if err == nil {
		return &progress, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	progress = models.TeamRoundProgress{
		TeamID:      teamID,
		RoundID:     roundID,
		Status:      models.StatusNotStarted,
		Score:       0,
		CurrentPage: 1,
	}
	if createErr := s.db.Create(&progress).Error; createErr != nil {
		// Unique (team, round) index means a concurrent request won the
		// creation race; fall back to the lookup.
		if err := s.db.Where("team_id = ? AND round_id = ?", teamID, roundID).First(&progress).Error; err == nil {
			return &progress, false, nil
		}
		return nil, false, createErr
	}
	return &progress, true, nil
}

// CompletedPageCount counts completed page records for a session.
func (s *ProgressStore) CompletedPageCount(sessionID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.PageProgress{}).
		Where("team_round_id = ? AND completed = ?", sessionID, true).
		Count(&count).Error
	return int(count), err
}

// ReconcileScore recomputes the session score from its completed pages and
// persists it only when it drifted. Call this whenever page records may
// have changed outside the completion flow, e.g. before rendering a
// dashboard.
func (s *ProgressStore) ReconcileScore(progress *models.TeamRoundProgress) error {
	count, err := s.CompletedPageCount(progress.ID)
	if err != nil {
		return err
	}

	want := count * s.pointsPerPage
	if progress.Score == want {
		return nil
	}

	progress.Score = want
	return s.db.Model(&models.TeamRoundProgress{}).
		Where("id = ?", progress.ID).
		Update("score", want).Error
}

// OnPageRecordDeleted repairs the owning session's score after a page
// record was deleted out-of-band.
func (s *ProgressStore) OnPageRecordDeleted(page *models.PageProgress) error {
	var progress models.TeamRoundProgress
	if err := s.db.First(&progress, page.TeamRoundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Session went with the page (cascade); nothing to repair.
			return nil
		}
		return err
	}
	return s.ReconcileScore(&progress)
}

// OnSessionDeleted records an audit entry for a deleted session. The
// team's displayed total is computed from its remaining sessions, so no
// team mutation happens here.
func (s *ProgressStore) OnSessionDeleted(progress *models.TeamRoundProgress, roundNumber int) error {
	return s.activity.Log(progress.TeamID, models.ActivityRoundCompleted,
		fmt.Sprintf("Round %d progress was reset by admin", roundNumber),
		map[string]interface{}{
			"previous_score": progress.Score,
			"round_number":   roundNumber,
			"admin_action":   true,
		})
}

// TeamTotalScore sums the team's session scores.
func (s *ProgressStore) TeamTotalScore(teamID uint) (int, error) {
	var total int
	err := s.db.Model(&models.TeamRoundProgress{}).
		Where("team_id = ?", teamID).
		Select("COALESCE(SUM(score), 0)").
		Scan(&total).Error
	return total, err
}

// SessionPages returns a session's page records in page order.
func (s *ProgressStore) SessionPages(sessionID uint) ([]models.PageProgress, error) {
	var pages []models.PageProgress
	err := s.db.Where("team_round_id = ?", sessionID).
		Order("page_number ASC").
		Find(&pages).Error
	return pages, err
}

// TeamSessions returns all of a team's sessions ordered by round number.
func (s *ProgressStore) TeamSessions(teamID uint) ([]models.TeamRoundProgress, error) {
	var sessions []models.TeamRoundProgress
	err := s.db.Joins("JOIN rounds ON rounds.id = team_round_progress.round_id").
		Where("team_round_progress.team_id = ?", teamID).
		Order("rounds.round_number ASC").
		Preload("Round").
		Find(&sessions).Error
	return sessions, err
}
