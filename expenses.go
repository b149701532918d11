package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sahiljoharle/Bucks-And-Balance/models"
)

// expenseRow is an expense enriched with the joined category name. The join
// is a LEFT JOIN, so CategoryName is null for uncategorized expenses and for
// dangling category references.
type expenseRow struct {
	ID           uint      `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserID       uint      `json:"user_id"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	CategoryID   *uint     `json:"category_id"`
	Description  *string   `json:"description"`
	Source       string    `json:"source"`
	CategoryName *string   `json:"category_name"`
}

// categorySummary aggregates one user's spending per visible category.
type categorySummary struct {
	CategoryID uint    `json:"category_id"`
	Name       string  `json:"name"`
	IsDefault  bool    `json:"is_default"`
	Total      float64 `json:"total"`
	Count      int64   `json:"count"`
}

// expenseInput carries the mutable expense fields for create and update.
type expenseInput struct {
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"` // RFC3339 or YYYY-MM-DD; empty means now
	CategoryID  *uint   `json:"category_id"`
	Description *string `json:"description"`
	Source      string  `json:"source"`
}

// parseExpenseDate accepts RFC3339 or a plain calendar date, defaulting to now.
func parseExpenseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// createExpense inserts an expense owned by userID. Amount sign, date range
// and category existence are deliberately not validated here; storage
// constraints are the only guard.
func createExpense(userID uint, in expenseInput) (*models.Expense, error) {
	date, err := parseExpenseDate(in.Date)
	if err != nil {
		return nil, err
	}
	source := in.Source
	if source == "" {
		source = "manual"
	}
	exp := models.Expense{
		UserID:      userID,
		Amount:      in.Amount,
		Date:        date,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Source:      source,
	}
	if err := db.Create(&exp).Error; err != nil {
		return nil, err
	}
	return &exp, nil
}

func expenseQuery(userID uint) *gorm.DB {
	return db.Table("expenses").
		Select("expenses.id, expenses.created_at, expenses.updated_at, expenses.user_id, expenses.amount, expenses.date, expenses.category_id, expenses.description, expenses.source, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ?", userID)
}

// listExpenses returns the user's expenses, most recent date first. Ties on
// equal dates keep storage order, which is not deterministic.
func listExpenses(userID uint) ([]expenseRow, error) {
	rows := []expenseRow{}
	err := expenseQuery(userID).Order("expenses.date DESC").Scan(&rows).Error
	return rows, err
}

func listExpensesByCategory(userID, categoryID uint) ([]expenseRow, error) {
	rows := []expenseRow{}
	err := expenseQuery(userID).
		Where("expenses.category_id = ?", categoryID).
		Order("expenses.date DESC").
		Scan(&rows).Error
	return rows, err
}

func getExpense(userID, expenseID uint) (*expenseRow, error) {
	var row expenseRow
	err := expenseQuery(userID).Where("expenses.id = ?", expenseID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &row, nil
}

// updateExpense replaces all mutable fields in one shot; this is a full
// replacement, not a patch, so omitted fields are written as their zero or
// null values.
func updateExpense(userID, expenseID uint, in expenseInput) (*expenseRow, error) {
	date, err := parseExpenseDate(in.Date)
	if err != nil {
		return nil, err
	}
	res := db.Model(&models.Expense{}).
		Where("id = ? AND user_id = ?", expenseID, userID).
		Updates(map[string]interface{}{
			"amount":      in.Amount,
			"date":        date,
			"category_id": in.CategoryID,
			"description": in.Description,
			"source":      in.Source,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errNotFound
	}
	return getExpense(userID, expenseID)
}

// deleteExpense removes the expense and returns the deleted row.
func deleteExpense(userID, expenseID uint) (*models.Expense, error) {
	var exp models.Expense
	err := db.Where("id = ? AND user_id = ?", expenseID, userID).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	if err := db.Delete(&exp).Error; err != nil {
		return nil, err
	}
	return &exp, nil
}

// summarizeByCategory aggregates total and count of the user's expenses for
// every category visible to the user. Categories with no matching expenses
// still appear with a zero total and count.
func summarizeByCategory(userID uint) ([]categorySummary, error) {
	rows := []categorySummary{}
	err := db.Table("categories").
		Select("categories.id AS category_id, categories.name, categories.is_default, COALESCE(SUM(expenses.amount), 0) AS total, COUNT(expenses.id) AS count").
		Joins("LEFT JOIN expenses ON expenses.category_id = categories.id AND expenses.user_id = ?", userID).
		Where("categories.user_id = ? OR categories.is_default = ?", userID, true).
		Group("categories.id, categories.name, categories.is_default").
		Order("categories.name ASC").
		Scan(&rows).Error
	return rows, err
}

func createExpenseHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req expenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	exp, err := createExpense(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, exp)
}

func listExpensesHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	rows, err := listExpenses(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func listExpensesByCategoryHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	categoryID, err := parseIDParam(c, "category_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	rows, err := listExpensesByCategory(userID, categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func getExpenseHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return
	}
	row, err := getExpense(userID, id)
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, row)
	}
}

func updateExpenseHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return
	}
	var req expenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := updateExpense(userID, id, req)
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, row)
	}
}

func deleteExpenseHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return
	}
	exp, err := deleteExpense(userID, id)
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Expense deleted", "expense": exp})
	}
}

func expenseSummaryHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	rows, err := summarizeByCategory(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}
