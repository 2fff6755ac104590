// handlers/game.go - Round start, page validation, game state API
package handlers

import (
	"errors"
	"log"

	"bughunt/middleware"
	"bughunt/services"

	"github.com/gofiber/fiber/v2"
)

type startGameRequest struct {
	RoundNumber int `json:"round_number"`
}

// StartGame starts or resumes the caller's team session for a round.
// POST /api/game/start
func StartGame(c *fiber.Ctx) error {
	teamID, err := middleware.GetTeamID(c)
	if err != nil {
		return c.Status(403).JSON(fiber.Map{"error": "No team found"})
	}

	var req startGameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := gameService.StartRound(teamID, req.RoundNumber)
	if err != nil {
		return gameError(c, err)
	}

	hub.BroadcastState(teamID, req.RoundNumber)

	return c.JSON(fiber.Map{
		"success":        true,
		"page_url":       result.PageURL,
		"team_id":        result.TeamID,
		"round_number":   result.RoundNumber,
		"current_page":   result.CurrentPage,
		"token":          result.Token,
		"is_new_start":   result.IsNewStart,
		"time_remaining": result.TimeRemaining,
		"current_score":  result.CurrentScore,
	})
}

// ValidatePage validates a page completion and returns the next step.
// Authenticated by the page token itself, not a member JWT.
// POST /api/game/validate-page
func ValidatePage(c *fiber.Ctx) error {
	var req services.ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := gameService.ValidatePage(req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBugs) {
			return c.Status(400).JSON(fiber.Map{
				"error":         "All bugs must be fixed",
				"bugs_required": gameService.BugQuota(),
				"bugs_fixed":    len(req.BugsFixed),
			})
		}
		return gameError(c, err)
	}

	hub.BroadcastState(req.TeamID, req.RoundNumber)

	if result.RoundCompleted {
		return c.JSON(fiber.Map{
			"success":            true,
			"round_completed":    true,
			"final_score":        result.FinalScore,
			"redirect_dashboard": true,
			"message":            result.Message,
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"next_page_url":   result.NextPageURL,
		"current_score":   result.CurrentScore,
		"pages_completed": result.PagesCompleted,
		"total_pages":     result.TotalPages,
	})
}

type gameStateRequest struct {
	TeamID      uint `json:"team_id"`
	RoundNumber int  `json:"round_number"`
}

// GetGameState returns the current score, time budget and page position.
// POST /api/game/state
func GetGameState(c *fiber.Ctx) error {
	var req gameStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	state, err := gameService.GameState(req.TeamID, req.RoundNumber)
	if err != nil {
		return gameError(c, err)
	}

	return c.JSON(fiber.Map{
		"team_name":      state.TeamName,
		"current_score":  state.Score,
		"time_remaining": state.TimeRemaining,
		"current_page":   state.CurrentPage,
		"status":         state.Status,
	})
}

// gameError maps protocol errors to HTTP responses.
func gameError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		return c.Status(403).JSON(fiber.Map{
			"error":   "Invalid token",
			"details": "Security token validation failed",
		})
	case errors.Is(err, services.ErrRoundClosed):
		return c.Status(403).JSON(fiber.Map{"error": "Round not open yet"})
	case errors.Is(err, services.ErrTimeExpired):
		return c.Status(403).JSON(fiber.Map{
			"error":              "Time over",
			"redirect_dashboard": true,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Not found"})
	default:
		log.Printf("Unexpected game error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Server error"})
	}
}
