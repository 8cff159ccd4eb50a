package models

import "time"

// User is the identity that scopes a trade journal
type User struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Anonymous    bool      `json:"anonymous"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
