// handlers/admin/rounds.go - Round lifecycle control endpoints
package admin

import (
	"errors"
	"log"

	"bughunt/database"
	"bughunt/models"
	"bughunt/services"

	"github.com/gofiber/fiber/v2"
)

// ListRounds returns all rounds with session counts.
// GET /api/admin/rounds
func ListRounds(c *fiber.Ctx) error {
	rounds, err := roundService.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	db := database.GetDB()
	type roundInfo struct {
		models.Round
		TeamsStarted   int64 `json:"teams_started"`
		TeamsCompleted int64 `json:"teams_completed"`
	}

	out := make([]roundInfo, 0, len(rounds))
	for _, round := range rounds {
		var started, completed int64
		db.Model(&models.TeamRoundProgress{}).
			Where("round_id = ? AND status <> ?", round.ID, models.StatusNotStarted).
			Count(&started)
		db.Model(&models.TeamRoundProgress{}).
			Where("round_id = ? AND status IN ?", round.ID,
				[]string{models.StatusCompleted, models.StatusQualified}).
			Count(&completed)
		out = append(out, roundInfo{Round: round, TeamsStarted: started, TeamsCompleted: completed})
	}

	return c.JSON(fiber.Map{"success": true, "rounds": out})
}

// OpenRound opens a round for play.
// POST /api/admin/rounds/:roundNumber/open
func OpenRound(c *fiber.Ctx) error {
	roundNumber, err := c.ParamsInt("roundNumber")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid round number"})
	}

	round, err := roundService.OpenRound(roundNumber)
	if err != nil {
		return roundError(c, err)
	}

	log.Printf("🟢 Round %d opened by admin", roundNumber)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Round opened",
		"round":   round,
	})
}

// CloseRound closes a round.
// POST /api/admin/rounds/:roundNumber/close
func CloseRound(c *fiber.Ctx) error {
	roundNumber, err := c.ParamsInt("roundNumber")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid round number"})
	}

	round, err := roundService.CloseRound(roundNumber)
	if err != nil {
		return roundError(c, err)
	}

	log.Printf("🔴 Round %d closed by admin", roundNumber)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Round closed",
		"round":   round,
	})
}

type setDurationRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

// SetRoundDuration updates a round's configured duration. Sessions that
// already started keep the deadline computed at start.
// PUT /api/admin/rounds/:roundNumber/duration
func SetRoundDuration(c *fiber.Ctx) error {
	roundNumber, err := c.ParamsInt("roundNumber")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid round number"})
	}

	var req setDurationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	round, err := roundService.SetDuration(roundNumber, req.DurationMinutes)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": "Round not found"})
		}
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Duration updated",
		"round":   round,
	})
}

// QualifyRound promotes every completed session of the round to qualified.
// POST /api/admin/rounds/:roundNumber/qualify
func QualifyRound(c *fiber.Ctx) error {
	roundNumber, err := c.ParamsInt("roundNumber")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid round number"})
	}

	promoted, err := roundService.QualifyCompleted(roundNumber)
	if err != nil {
		return roundError(c, err)
	}

	log.Printf("🏆 Round %d: %d teams qualified", roundNumber, promoted)
	return c.JSON(fiber.Map{
		"success":         true,
		"teams_qualified": promoted,
	})
}

func roundError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Round not found"})
	}
	log.Printf("Round admin error: %v", err)
	return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
}
