// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditRecordedEvent is published after a grade mutation and its audit entry
// commit. It carries enough for downstream consumers to alert or aggregate
// without querying the primary database. The database row stays the source
// of truth; delivery is best-effort.
type AuditRecordedEvent struct {
	EventID     string `json:"event_id"`
	TeacherID   uint64 `json:"teacher_id"`
	Action      string `json:"action"`
	StudentName string `json:"student_name"`
	Subject     string `json:"subject"`
	OldMarks    *int   `json:"old_marks"`
	NewMarks    *int   `json:"new_marks"`
	IPAddress   string `json:"ip_address"`
	RecordedAt  string `json:"recorded_at"`
}
