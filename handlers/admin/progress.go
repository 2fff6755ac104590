// handlers/admin/progress.go - Progress cleanup endpoints
//
// Deleting a session or a page record is how admins reset a team after a
// dispute. Scores are re-derived from what remains, so a deletion can
// never leave a stale total behind.
package admin

import (
	"log"

	"bughunt/database"
	"bughunt/models"

	"github.com/gofiber/fiber/v2"
)

// DeleteSession removes a team's whole round session, page records
// included, and writes an audit entry with the score that was lost.
// DELETE /api/admin/progress/sessions/:sessionId
func DeleteSession(c *fiber.Ctx) error {
	sessionID, err := c.ParamsInt("sessionId")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid session id"})
	}

	db := database.GetDB()

	var session models.TeamRoundProgress
	if err := db.Preload("Round").First(&session, sessionID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}

	if err := db.Where("team_round_id = ?", session.ID).Delete(&models.PageProgress{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to delete page records"})
	}
	if err := db.Delete(&session).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to delete session"})
	}

	roundNumber := 0
	if session.Round != nil {
		roundNumber = session.Round.RoundNumber
	}
	if err := store.OnSessionDeleted(&session, roundNumber); err != nil {
		log.Printf("Failed to record session deletion (session=%d): %v", session.ID, err)
	}

	hub.BroadcastState(session.TeamID, roundNumber)

	log.Printf("🗑️ Session %d deleted (team=%d round=%d score=%d)",
		session.ID, session.TeamID, roundNumber, session.Score)
	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Session deleted",
		"previous_score": session.Score,
	})
}

// DeletePageRecord removes one page record and reconciles the owning
// session's score down.
// DELETE /api/admin/progress/pages/:pageId
func DeletePageRecord(c *fiber.Ctx) error {
	pageID, err := c.ParamsInt("pageId")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid page id"})
	}

	db := database.GetDB()

	var page models.PageProgress
	if err := db.First(&page, pageID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Page record not found"})
	}

	if err := db.Delete(&page).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to delete page record"})
	}

	if err := store.OnPageRecordDeleted(&page); err != nil {
		log.Printf("Score reconciliation failed after page deletion (page=%d): %v", page.ID, err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Reconciliation failed"})
	}

	var session models.TeamRoundProgress
	if err := db.Preload("Round").First(&session, page.TeamRoundID).Error; err == nil && session.Round != nil {
		hub.BroadcastState(session.TeamID, session.Round.RoundNumber)
	}

	log.Printf("🗑️ Page record %d deleted (session=%d page=%d)",
		page.ID, page.TeamRoundID, page.PageNumber)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Page record deleted",
	})
}

// ListSessionPages returns a session's page records for inspection.
// GET /api/admin/progress/sessions/:sessionId/pages
func ListSessionPages(c *fiber.Ctx) error {
	sessionID, err := c.ParamsInt("sessionId")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid session id"})
	}

	db := database.GetDB()

	var session models.TeamRoundProgress
	if err := db.First(&session, sessionID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}

	pages, err := store.SessionPages(session.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Server error"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"session": session,
		"pages":   pages,
	})
}
