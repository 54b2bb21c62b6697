package main

import (
	"context"
	"log"
	"os"
	"time"

	"bridgepay/internal/config"
	"bridgepay/internal/models"
	"bridgepay/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			sqlDB, err := repositories.DB.DB()
			if err != nil {
				log.Printf("⚠️ Failed to get SQL DB instance: %v", err)
			} else {
				if err := sqlDB.Close(); err != nil {
					log.Printf("⚠️ Failed to close PostgreSQL connection: %v", err)
				}
			}
		}

		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}
	}()

	var existingAdmin models.User
	result := repositories.DB.Where("email = ?", adminEmail).First(&existingAdmin)
	if result.Error == nil {
		log.Println("Admin user already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	now := time.Now()
	adminUser := models.User{
		Email:           adminEmail,
		Password:        string(hashedPassword),
		FirstName:       "BridgePay",
		LastName:        "Admin",
		Role:            models.RoleAdmin,
		KYCStatus:       models.KYCVerified,
		TermsAccepted:   true,
		TermsAcceptedAt: &now,
		TokenVersion:    1,
	}

	if err := repositories.DB.Create(&adminUser).Error; err != nil {
		log.Fatal("Failed to create admin user:", err)
	}

	if repositories.CacheService != nil {
		repositories.CacheService.InvalidateUser(context.Background(), adminUser.ID, adminEmail)
	}

	log.Println("✅ Admin account created successfully!")
}
