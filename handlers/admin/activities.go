// handlers/admin/activities.go - Activity feed
package admin

import (
	"github.com/gofiber/fiber/v2"
)

const defaultActivityLimit = 100

// ListActivities returns the newest activity entries, optionally filtered
// to one team via ?team_id=.
// GET /api/admin/activities
func ListActivities(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultActivityLimit)
	if limit <= 0 || limit > 500 {
		limit = defaultActivityLimit
	}

	if teamID := c.QueryInt("team_id", 0); teamID > 0 {
		entries, err := activityLog.ForTeam(uint(teamID), limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
		}
		return c.JSON(fiber.Map{"success": true, "activities": entries})
	}

	entries, err := activityLog.Recent(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}
	return c.JSON(fiber.Map{"success": true, "activities": entries})
}
