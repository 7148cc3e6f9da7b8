package model

import "time"

// Student mirrors the 'students' table. The (Name, Subject) pair is unique;
// Marks stays within [0,100] at all times.
type Student struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Marks     int       `json:"marks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
