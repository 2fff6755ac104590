// handlers/admin/leaderboard.go - Standings views for the admin console
package admin

import (
	"errors"

	"bughunt/database"
	"bughunt/models"
	"bughunt/services"

	"github.com/gofiber/fiber/v2"
)

// OverallLeaderboard returns every team ordered by total score.
// GET /api/admin/leaderboard
func OverallLeaderboard(c *fiber.Ctx) error {
	db := database.GetDB()

	type row struct {
		TeamID          uint   `json:"team_id"`
		TeamName        string `json:"team_name"`
		TotalScore      int    `json:"total_score"`
		RoundsCompleted int    `json:"rounds_completed"`
	}

	var rows []row
	err := db.Table("teams").
		Select(`teams.id AS team_id,
			teams.name AS team_name,
			COALESCE(SUM(p.score), 0) AS total_score,
			COUNT(DISTINCT CASE WHEN p.status IN ('completed', 'qualified') THEN p.id END) AS rounds_completed`).
		Joins("LEFT JOIN team_round_progress p ON p.team_id = teams.id").
		Group("teams.id, teams.name, teams.created_at").
		Order("total_score DESC, teams.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	return c.JSON(fiber.Map{"success": true, "leaderboard": rows})
}

// RoundLeaderboard returns one round's standings: score first, then the
// time the team took, so equal scores rank the faster team higher.
// GET /api/admin/leaderboard/:roundNumber
func RoundLeaderboard(c *fiber.Ctx) error {
	roundNumber, err := c.ParamsInt("roundNumber")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid round number"})
	}

	round, err := roundService.GetByNumber(roundNumber)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": "Round not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	db := database.GetDB()

	type row struct {
		TeamID          uint   `json:"team_id"`
		TeamName        string `json:"team_name"`
		Score           int    `json:"score"`
		Status          string `json:"status"`
		CurrentPage     int    `json:"current_page"`
		DurationSeconds int    `json:"duration_seconds"`
		IsQualified     bool   `json:"is_qualified"`
	}

	var rows []row
	err = db.Table("team_round_progress").
		Select(`team_round_progress.team_id,
			teams.name AS team_name,
			team_round_progress.score,
			team_round_progress.status,
			team_round_progress.current_page,
			team_round_progress.duration_seconds,
			team_round_progress.is_qualified`).
		Joins("JOIN teams ON teams.id = team_round_progress.team_id").
		Where("team_round_progress.round_id = ? AND team_round_progress.status <> ?",
			round.ID, models.StatusNotStarted).
		Order("team_round_progress.score DESC, team_round_progress.duration_seconds ASC").
		Scan(&rows).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"round":       round,
		"leaderboard": rows,
	})
}
