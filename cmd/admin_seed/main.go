// Seeds the first ADMIN account with its wallet. Safe to run repeatedly:
// if the admin email already exists nothing is changed.
package main

import (
	"context"
	"log"
	"os"

	"dwallet/internal/config"
	"dwallet/internal/models"
	"dwallet/internal/repositories"
	"dwallet/internal/services/pin"
	"dwallet/internal/services/wallet"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	adminPhone := os.Getenv("ADMIN_PHONE")
	adminPin := os.Getenv("ADMIN_PIN")

	if adminEmail == "" || adminPassword == "" || adminPhone == "" || adminPin == "" {
		log.Fatal("ADMIN_EMAIL, ADMIN_PASSWORD, ADMIN_PHONE and ADMIN_PIN must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Printf("Failed to close PostgreSQL connection: %v", err)
				}
			}
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}
	}()

	ctx := context.Background()
	store := repositories.NewStore(repositories.DB)

	if _, err := store.UserByEmail(ctx, adminEmail); err == nil {
		log.Println("Admin user already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := &models.User{
		Name:         "System Administrator",
		Email:        adminEmail,
		Phone:        adminPhone,
		Password:     string(hashedPassword),
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
		TokenVersion: 1,
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		log.Fatal("Failed to create admin user:", err)
	}

	walletService := wallet.NewService(store, repositories.CacheService, pin.NewGuard(pin.NewBcryptHasher(0)))
	w, err := walletService.Create(ctx, admin.ID, adminPin)
	if err != nil {
		log.Fatal("Failed to create admin wallet:", err)
	}

	log.Printf("Admin account created successfully (wallet %s)", w.WalletNumber)
}
