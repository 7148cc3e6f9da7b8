package service

import "fmt"

// ValidationError reports user-correctable input problems. The message is
// safe to show to the client verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// CapacityError rejects a merge whose uncapped sum would exceed the marks
// ceiling. The mutation is rolled back; the error carries both sides of the
// failed addition for the client message.
type CapacityError struct {
	Current   int
	Attempted int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Total marks would exceed 100 (current: %d, adding: %d)", e.Current, e.Attempted)
}
