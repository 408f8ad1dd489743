package domain

import "time"

// Profile is the minimal user record offers reference by foreign key.
type Profile struct {
	UserID    string
	Email     string
	CreatedAt time.Time
}
