package main

import (
	"log"
	"os"
	"strings"

	"github.com/sahiljoharle/Bucks-And-Balance/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// defaultCategories is the shared read-only category set seeded at migration
// time. Rows are owned by nobody (null user_id) and visible to every user;
// no user-facing operation can mutate them.
var defaultCategories = []string{
	"Food",
	"Transport",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Health",
	"Other",
}

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		runMigrations()
	}
	seedDB()
}

// runMigrations migrates models individually so a failure on one doesn't block others.
func runMigrations() {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}); err != nil {
		log.Printf("migration warning (categories): %v", err)
	}
	if err := db.AutoMigrate(&models.Expense{}); err != nil {
		log.Printf("migration warning (expenses): %v", err)
	}
	if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
		log.Printf("migration warning (refresh_tokens): %v", err)
	}
}

// seedDB ensures the shared default categories exist. Idempotent by name.
func seedDB() {
	for _, name := range defaultCategories {
		var cnt int64
		db.Model(&models.Category{}).Where("name = ? AND is_default = ?", name, true).Count(&cnt)
		if cnt == 0 {
			db.Create(&models.Category{Name: name, IsDefault: true})
		}
	}
}
