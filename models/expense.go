package models

import "time"

// Expense is a single spending record belonging to one user. CategoryID is
// nullable so an expense can exist without a category (the category join in
// queries is a LEFT JOIN for the same reason).
type Expense struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	Amount      float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	Date        time.Time `json:"date" gorm:"not null"`
	CategoryID  *uint     `json:"category_id" gorm:"index"`
	Description *string   `json:"description" gorm:"size:255"`
	Source      string    `json:"source" gorm:"size:64;not null;default:manual"`
}
