package report

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sahiljoharle/Bucks-And-Balance/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// RunReport prints a month-bounded per-category spending report for the
// account behind email (month in YYYY-MM) and optionally lists the matching
// expense rows.
func RunReport(email, month string, list bool) {
	gdb := mustDBFromEnv()

	var user models.User
	if err := gdb.Where("email = ?", email).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	t, err := time.Parse("2006-01", month)
	if err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	type line struct {
		Name  *string
		Total float64
		Cnt   int64
	}
	var lines []line
	err = gdb.Table("expenses").
		Select("categories.name AS name, COALESCE(SUM(expenses.amount),0) AS total, COUNT(expenses.id) AS cnt").
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND expenses.date >= ? AND expenses.date < ?", user.ID, start, end).
		Group("categories.name").
		Order("total DESC").
		Scan(&lines).Error
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}

	fmt.Printf("Spending report for user=%s month=%s (UTC):\n", user.Email, month)
	var grand float64
	for _, l := range lines {
		name := "(uncategorized)"
		if l.Name != nil {
			name = *l.Name
		}
		fmt.Printf("  %-24s records=%d total=%.2f\n", name, l.Cnt, l.Total)
		grand += l.Total
	}
	fmt.Printf("  grand total=%.2f\n", grand)

	if list {
		var rows []models.Expense
		if err := gdb.Where("user_id = ? AND date >= ? AND date < ?", user.ID, start, end).Order("date").Find(&rows).Error; err != nil {
			log.Fatalf("fetch rows failed: %v", err)
		}
		for _, r := range rows {
			desc := ""
			if r.Description != nil {
				desc = *r.Description
			}
			fmt.Printf("%d|%.2f|%s|%s|%s\n", r.ID, r.Amount, r.Date.Format("2006-01-02"), r.Source, desc)
		}
	}
}
