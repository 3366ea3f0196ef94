package model

import "time"

// User is the subset of the account model this subsystem needs: admin
// routes check IsAdmin, activation refuses blocked owners.
type User struct {
	ID           string // UUID
	Email        string
	IsAdmin      bool
	IsBlocked    bool
	RegisteredAt time.Time
}
