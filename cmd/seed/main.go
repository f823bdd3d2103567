package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/db"
	"github.com/ikkim/campus-backend/pkg/util"
)

const batchSize = 500

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <books.xlsx>")
	}
	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate:", err)
	}
	if err := db.Seed(); err != nil {
		log.Fatal("Failed to seed reference data:", err)
	}

	if err := seedStaff(repository.NewUserRepository(db.GetDB())); err != nil {
		log.Fatal("Failed to seed staff user:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	result, err := readBooksFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", result.Rows)
	fmt.Printf("  Valid books: %d\n", len(result.Books))
	fmt.Printf("  Skipped rows: %d\n", result.Skipped)

	if len(result.Books) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	bookRepo := repository.NewBookRepository(db.GetDB())
	if err := bookRepo.CreateInBatches(result.Books, batchSize); err != nil {
		log.Fatal("Failed to import books:", err)
	}
	fmt.Printf("Import completed: %d books\n", len(result.Books))
}

// seedStaff creates the first staff account from SEED_STAFF_* variables.
// It is a no-op when the variables are unset or the username already exists.
func seedStaff(users repository.UserRepository) error {
	username := os.Getenv("SEED_STAFF_USERNAME")
	password := os.Getenv("SEED_STAFF_PASSWORD")
	if username == "" || password == "" {
		return nil
	}
	if existing, err := users.FindByUsername(username); err == nil && existing != nil {
		fmt.Printf("Staff user %q already exists\n", username)
		return nil
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}
	user := &model.User{
		Username:     username,
		Email:        envOr("SEED_STAFF_EMAIL", username+"@campus.local"),
		Phone:        envOr("SEED_STAFF_PHONE", "09000000000"),
		PasswordHash: hash,
		Role:         model.RoleTeacher,
		IsStaff:      true,
		IsActive:     true,
	}
	if err := users.Create(user); err != nil {
		return err
	}
	fmt.Printf("Created staff user %q (id=%d)\n", username, user.ID)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
