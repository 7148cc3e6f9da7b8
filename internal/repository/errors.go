// Package repository persists portal entities in MySQL. Sentinel errors
// defined here let higher layers branch on expected outcomes (a missing row
// is a business result, not a server fault) instead of inspecting driver
// errors.
package repository

import "errors"

// ErrNotFound is returned when a referenced entity does not exist. Handlers
// translate it into a success:false JSON response, never a 5xx.
var ErrNotFound = errors.New("not found")
