// handlers/dashboard.go - Team dashboard and leaderboard
package handlers

import (
	"log"

	"bughunt/database"
	"bughunt/middleware"
	"bughunt/models"

	"github.com/gofiber/fiber/v2"
)

const leaderboardSize = 15

// LeaderboardRow is one team's aggregate standing.
type LeaderboardRow struct {
	TeamID          uint   `json:"team_id"`
	TeamName        string `json:"team_name"`
	TotalScore      int    `json:"total_score"`
	MembersCount    int    `json:"members_count"`
	RoundsCompleted int    `json:"rounds_completed"`
}

// TeamDashboard returns the caller's per-round progress, rank and the top
// of the leaderboard. Session scores are reconciled on read so the view
// self-heals after administrative deletions.
// GET /api/dashboard
func TeamDashboard(c *fiber.Ctx) error {
	teamID, err := middleware.GetTeamID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Not authenticated"})
	}

	db := database.GetDB()

	var team models.Team
	if err := db.First(&team, teamID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Team not found"})
	}

	rounds, err := roundService.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	type roundProgress struct {
		Round    models.Round             `json:"round"`
		Progress models.TeamRoundProgress `json:"progress"`
	}

	progressList := make([]roundProgress, 0, len(rounds))
	roundsCompleted := 0
	for _, round := range rounds {
		session, _, err := store.GetOrCreateSession(teamID, round.ID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
		}
		if session.Status != models.StatusNotStarted {
			if err := store.ReconcileScore(session); err != nil {
				log.Printf("Score reconciliation failed (session=%d): %v", session.ID, err)
			}
		}
		if session.Status == models.StatusCompleted || session.Status == models.StatusQualified {
			roundsCompleted++
		}
		progressList = append(progressList, roundProgress{Round: round, Progress: *session})
	}

	standings, err := leaderboard(0)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	rank := 1
	for i, row := range standings {
		if row.TeamID == teamID {
			rank = i + 1
			break
		}
	}

	top := standings
	if len(top) > leaderboardSize {
		top = top[:leaderboardSize]
	}

	totalScore, err := store.TeamTotalScore(teamID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"team":             team,
		"rounds":           progressList,
		"rounds_completed": roundsCompleted,
		"team_rank":        rank,
		"total_teams":      len(standings),
		"top_teams":        top,
		"total_score":      totalScore,
	})
}

// leaderboard computes team standings ordered by total score, ties broken
// by team age. limit <= 0 returns all teams.
func leaderboard(limit int) ([]LeaderboardRow, error) {
	db := database.GetDB()

	var rows []LeaderboardRow
	query := db.Table("teams").
		Select(`teams.id AS team_id,
			teams.name AS team_name,
			COALESCE(SUM(p.score), 0) AS total_score,
			COUNT(DISTINCT m.id) AS members_count,
			COUNT(DISTINCT CASE WHEN p.status IN ('completed', 'qualified') THEN p.id END) AS rounds_completed`).
		Joins("LEFT JOIN team_round_progress p ON p.team_id = teams.id").
		Joins("LEFT JOIN team_members m ON m.team_id = teams.id").
		Group("teams.id, teams.name, teams.created_at").
		Order("total_score DESC, teams.created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Scan(&rows).Error
	return rows, err
}
