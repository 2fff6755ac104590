// database/seed.go - Bootstrap data
package database

import (
	"errors"
	"log"

	"bughunt/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureAdminUser creates the bootstrap admin account if it does not
// exist. Skipped when no password is configured.
func EnsureAdminUser(username, password string) {
	if password == "" {
		log.Println("⚠️ ADMIN_PASSWORD not set, skipping admin bootstrap")
		return
	}

	db := GetDB()

	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Admin bootstrap lookup failed: %v", err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	user = models.User{
		Username: username,
		Password: string(hashed),
		IsAdmin:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("Failed to create admin user: %v", err)
		return
	}

	log.Printf("✅ Admin user %q created", username)
}
