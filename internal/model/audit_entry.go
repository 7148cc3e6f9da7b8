package model

import "time"

// Audit actions recorded for student mutations.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// AuditEntry is one immutable row of the audit trail. Entries are written in
// the same transaction as the mutation they record and are never updated or
// deleted afterwards. OldMarks/NewMarks are nil when the action has no
// before/after value (CREATE has no old marks, DELETE no new ones).
type AuditEntry struct {
	ID          uint64
	TeacherID   uint64
	Action      string
	StudentName string
	Subject     string
	OldMarks    *int
	NewMarks    *int
	Timestamp   time.Time
	IPAddress   string
}
