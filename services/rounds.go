// services/rounds.go - Round lifecycle control
package services

import (
	"errors"
	"fmt"

	"bughunt/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// RoundService manages the round-level state machine: open/close, the
// configured duration and the activation window.
type RoundService struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewRoundService(db *gorm.DB, clock clockwork.Clock) *RoundService {
	return &RoundService{db: db, clock: clock}
}

// EnsureRounds creates missing round definitions 1..count with the default
// duration. Existing rounds are left untouched.
func (s *RoundService) EnsureRounds(count, defaultMinutes int) error {
	for n := 1; n <= count; n++ {
		round := models.Round{RoundNumber: n, DurationMinutes: defaultMinutes}
		if err := s.db.Where("round_number = ?", n).FirstOrCreate(&round).Error; err != nil {
			return fmt.Errorf("ensure round %d: %w", n, err)
		}
	}
	return nil
}

// GetByNumber looks up a round by its ordinal.
func (s *RoundService) GetByNumber(roundNumber int) (*models.Round, error) {
	var round models.Round
	if err := s.db.Where("round_number = ?", roundNumber).First(&round).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("round %d: %w", roundNumber, ErrNotFound)
		}
		return nil, err
	}
	return &round, nil
}

// List returns all rounds in ordinal order.
func (s *RoundService) List() ([]models.Round, error) {
	var rounds []models.Round
	err := s.db.Order("round_number ASC").Find(&rounds).Error
	return rounds, err
}

// OpenRound opens a round and stamps its start time. Re-opening an already
// open round resets start_time to now; running sessions keep their own
// end_time. Kept as-is from the original product behavior.
func (s *RoundService) OpenRound(roundNumber int) (*models.Round, error) {
	round, err := s.GetByNumber(roundNumber)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	round.IsOpen = true
	round.StartTime = &now
	if err := s.db.Save(round).Error; err != nil {
		return nil, err
	}
	return round, nil
}

// CloseRound closes a round. start_time is preserved.
func (s *RoundService) CloseRound(roundNumber int) (*models.Round, error) {
	round, err := s.GetByNumber(roundNumber)
	if err != nil {
		return nil, err
	}

	round.IsOpen = false
	if err := s.db.Save(round).Error; err != nil {
		return nil, err
	}
	return round, nil
}

// SetDuration updates the configured duration. Sessions already running
// keep the end_time computed when they started.
func (s *RoundService) SetDuration(roundNumber, minutes int) (*models.Round, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", minutes)
	}

	round, err := s.GetByNumber(roundNumber)
	if err != nil {
		return nil, err
	}

	round.DurationMinutes = minutes
	if err := s.db.Save(round).Error; err != nil {
		return nil, err
	}
	return round, nil
}

// QualifyCompleted promotes every completed session of the round to
// qualified. Returns the number of sessions promoted.
func (s *RoundService) QualifyCompleted(roundNumber int) (int64, error) {
	round, err := s.GetByNumber(roundNumber)
	if err != nil {
		return 0, err
	}

	result := s.db.Model(&models.TeamRoundProgress{}).
		Where("round_id = ? AND status = ?", round.ID, models.StatusCompleted).
		Updates(map[string]interface{}{
			"status":       models.StatusQualified,
			"is_qualified": true,
		})
	return result.RowsAffected, result.Error
}
