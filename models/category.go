package models

import "time"

// Category is a spending category. Rows with IsDefault set are seeded at
// migration time, owned by nobody (null UserID) and visible to every user;
// user-created rows are always non-default. Name is unique per owner.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    *uint     `json:"user_id" gorm:"uniqueIndex:idx_owner_name"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_owner_name"`
	IsDefault bool      `json:"is_default" gorm:"default:false;not null"`
}
