package entities

import "time"

// User is a library patron or staff member. The two permission flags are
// independent; neither implies the other.
type User struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	Username               string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email                  string     `gorm:"size:254" json:"email,omitempty"`
	TokenHash              string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt         *time.Time `json:"-"`
	CanMarkReturned        bool       `gorm:"not null;default:false" json:"can_mark_returned"`
	CanCreateUpdateDestroy bool       `gorm:"not null;default:false" json:"can_create_update_destroy"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
