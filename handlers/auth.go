// handlers/auth.go - Team join / member identity
package handlers

import (
	"log"
	"time"

	"bughunt/database"
	"bughunt/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type JoinTeamRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	TeamPassword string `json:"team_password"`
}

// JoinTeam lets a player join the team whose shared password they hold.
// POST /api/auth/join
func JoinTeam(c *fiber.Ctx) error {
	var req JoinTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if req.Username == "" || req.TeamPassword == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Username and team password are required"})
	}

	db := database.GetDB()

	// The shared password identifies the team; compare against each hash.
	var teams []models.Team
	if err := db.Find(&teams).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	var team *models.Team
	for i := range teams {
		if bcrypt.CompareHashAndPassword([]byte(teams[i].Password), []byte(req.TeamPassword)) == nil {
			team = &teams[i]
			break
		}
	}
	if team == nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid team password"})
	}

	// A username belongs to at most one team.
	var member models.TeamMember
	err := db.Where("username = ?", req.Username).First(&member).Error
	if err == nil {
		token, tokenErr := generateMemberToken(&member)
		if tokenErr != nil {
			return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to generate token"})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "You are already part of a team",
			"token":   token,
			"team_id": member.TeamID,
		})
	}

	member = models.TeamMember{
		TeamID:    team.ID,
		MemberUID: uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		JoinedAt:  time.Now(),
	}
	if err := db.Create(&member).Error; err != nil {
		log.Printf("Failed to create team member: %v", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to join team"})
	}

	activityLog.Log(team.ID, models.ActivityMemberJoined,
		req.Username+" joined the team", nil)

	token, err := generateMemberToken(&member)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to generate token"})
	}

	return c.Status(201).JSON(fiber.Map{
		"success":   true,
		"message":   "Welcome to " + team.Name + "!",
		"token":     token,
		"team_id":   team.ID,
		"team_name": team.Name,
	})
}

func generateMemberToken(member *models.TeamMember) (string, error) {
	claims := jwt.MapClaims{
		"member_id": member.ID,
		"team_id":   member.TeamID,
		"username":  member.Username,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}
