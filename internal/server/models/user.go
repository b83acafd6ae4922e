package models

import "time"

// User is a marketplace participant. IDs come from the messaging platform.
type User struct {
	ID          string
	UserName    string
	DisplayName string
	Phone       string
	IsAdmin     bool
	CreatedAt   time.Time
}
