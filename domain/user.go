// Package domain contains core concepts of the messaging system.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// User carries the identity-synced profile plus presence.
// Presence is the only part mutated by this system.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}
