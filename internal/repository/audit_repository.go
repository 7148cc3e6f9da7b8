package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/teacher-portal/internal/model"
)

// AuditRepo appends to the audit trail. The table is append-only: there are
// no update or delete methods on purpose.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// InsertTx writes one audit entry inside the caller's transaction so the
// entry commits or rolls back together with the mutation it records.
func (r *AuditRepo) InsertTx(ctx context.Context, tx *sql.Tx, e model.AuditEntry) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO audit_log (teacher_id, action, student_name, subject, old_marks, new_marks, ip_address) VALUES (?,?,?,?,?,?,?)",
		e.TeacherID, e.Action, e.StudentName, e.Subject, nullInt(e.OldMarks), nullInt(e.NewMarks), e.IPAddress)
	return err
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
