// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"bughunt/models"

	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := Migrate(db); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes(db)

	log.Println("✅ All migrations completed successfully")
}

// Migrate creates the schema for all game models on the given handle.
// Split out from RunMigrations so tests can migrate an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Round{},
		&models.TeamRoundProgress{},
		&models.PageProgress{},
		&models.GameActivity{},
	)
}

// createIndexes creates supplementary indexes
func createIndexes(db *gorm.DB) {
	log.Println("Creating indexes...")

	db.Exec("CREATE INDEX IF NOT EXISTS idx_team_members_team ON team_members(team_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_progress_team ON team_round_progress(team_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_progress_round ON team_round_progress(round_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_progress_status ON team_round_progress(status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_progress_score ON team_round_progress(score DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_page_progress_round ON page_progress(team_round_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_page_progress_completed ON page_progress(completed)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_activities_team ON game_activities(team_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_activities_created ON game_activities(created_at DESC)")

	log.Println("✅ Indexes created successfully")
}
