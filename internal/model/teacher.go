package model

import "time"

// Teacher is an account that can sign in to the portal. Password material
// (hash + salt) is owned by the credential store; nothing else mutates it.
type Teacher struct {
	ID           uint64
	Username     string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}
