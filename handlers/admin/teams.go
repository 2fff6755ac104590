// handlers/admin/teams.go - Team management endpoints
package admin

import (
	"log"

	"bughunt/database"
	"bughunt/middleware"
	"bughunt/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type createTeamRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// CreateTeam registers a new team with a shared join password.
// POST /api/admin/teams
func CreateTeam(c *fiber.Ctx) error {
	var req createTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if req.Name == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Name and password are required"})
	}

	db := database.GetDB()

	var existing models.Team
	if err := db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{"success": false, "error": "Team name already taken"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	adminID := uint(0)
	switch v := c.Locals("userId").(type) {
	case float64:
		adminID = uint(v)
	case uint:
		adminID = v
	}

	team := models.Team{
		Name:      req.Name,
		Password:  string(hashed),
		CreatedBy: adminID,
	}
	if err := db.Create(&team).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to create team"})
	}

	activityLog.Log(team.ID, models.ActivityTeamCreated,
		"Team "+team.Name+" created", nil)

	log.Printf("✅ Team created: %s (id=%d)", team.Name, team.ID)
	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"team":    team,
	})
}

// ListTeams returns all teams with member counts and total scores.
// GET /api/admin/teams
func ListTeams(c *fiber.Ctx) error {
	db := database.GetDB()

	var teams []models.Team
	if err := db.Preload("Members").Order("created_at ASC").Find(&teams).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	type teamInfo struct {
		models.Team
		MembersCount int `json:"members_count"`
		TotalScore   int `json:"total_score"`
	}

	out := make([]teamInfo, 0, len(teams))
	for _, team := range teams {
		total, err := store.TeamTotalScore(team.ID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
		}
		out = append(out, teamInfo{
			Team:         team,
			MembersCount: len(team.Members),
			TotalScore:   total,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"teams":   out,
		"count":   len(out),
	})
}

// GetTeam returns one team with its members, sessions and recent activity.
// GET /api/admin/teams/:teamId
func GetTeam(c *fiber.Ctx) error {
	teamID, err := c.ParamsInt("teamId")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid team id"})
	}

	db := database.GetDB()

	var team models.Team
	if err := db.Preload("Members").First(&team, teamID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Team not found"})
	}

	sessions, err := store.TeamSessions(team.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	activities, err := activityLog.ForTeam(team.ID, 50)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	total, err := store.TeamTotalScore(team.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"team":        team,
		"sessions":    sessions,
		"activities":  activities,
		"total_score": total,
	})
}

// DeleteTeam removes a team and everything hanging off it.
// DELETE /api/admin/teams/:teamId
func DeleteTeam(c *fiber.Ctx) error {
	teamID, err := c.ParamsInt("teamId")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid team id"})
	}

	db := database.GetDB()

	var team models.Team
	if err := db.First(&team, teamID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Team not found"})
	}

	var sessions []models.TeamRoundProgress
	if err := db.Where("team_id = ?", team.ID).Find(&sessions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}
	for _, session := range sessions {
		db.Where("team_round_id = ?", session.ID).Delete(&models.PageProgress{})
	}
	db.Where("team_id = ?", team.ID).Delete(&models.TeamRoundProgress{})
	db.Where("team_id = ?", team.ID).Delete(&models.TeamMember{})
	db.Where("team_id = ?", team.ID).Delete(&models.GameActivity{})

	if err := db.Delete(&team).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to delete team"})
	}

	log.Printf("🗑️ Team deleted: %s (id=%d) by %s", team.Name, team.ID, middleware.GetUsername(c))
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Team deleted",
	})
}
