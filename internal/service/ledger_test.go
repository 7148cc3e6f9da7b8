package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/teacher-portal/internal/model"
	"github.com/iliyamo/teacher-portal/internal/queue"
	"github.com/iliyamo/teacher-portal/internal/repository"
)

var studentCols = []string{"id", "name", "subject", "marks", "created_at", "updated_at"}

func newLedgerWithMock(t *testing.T, publish func(context.Context, queue.AuditRecordedEvent) error) (*GradeLedger, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	ledger := NewGradeLedger(db, repository.NewStudentRepo(db), repository.NewAuditRepo(db), publish)
	return ledger, mock, db
}

func actingTeacher() model.Teacher {
	return model.Teacher{ID: 7, Username: "ann"}
}

func studentRow(id uint64, name, subject string, marks int) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(studentCols).AddRow(id, name, subject, marks, now, now)
}

func TestAddOrMerge_RejectsOverCap(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE name=").
		WithArgs("A", "Math").
		WillReturnRows(studentRow(1, "A", "Math", 60))
	mock.ExpectRollback()

	_, err := ledger.AddOrMerge(context.Background(), "A", "Math", 50, actingTeacher(), "10.0.0.1")

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 60, capErr.Current)
	assert.Equal(t, 50, capErr.Attempted)
	assert.Equal(t, "Total marks would exceed 100 (current: 60, adding: 50)", capErr.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddOrMerge_MergesWithinCap(t *testing.T) {
	var published []queue.AuditRecordedEvent
	capture := func(_ context.Context, ev queue.AuditRecordedEvent) error {
		published = append(published, ev)
		return nil
	}
	ledger, mock, db := newLedgerWithMock(t, capture)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE name=").
		WithArgs("A", "Math").
		WillReturnRows(studentRow(1, "A", "Math", 60))
	mock.ExpectExec("UPDATE students SET marks=").
		WithArgs(90, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(uint64(7), model.ActionUpdate, "A", "Math",
			sql.NullInt64{Int64: 60, Valid: true}, sql.NullInt64{Int64: 90, Valid: true}, "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg, err := ledger.AddOrMerge(context.Background(), "A", "Math", 30, actingTeacher(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Updated existing student. Marks increased from 60 to 90", msg)

	// Event mirrors the committed audit entry.
	require.Len(t, published, 1)
	assert.Equal(t, model.ActionUpdate, published[0].Action)
	require.NotNil(t, published[0].OldMarks)
	require.NotNil(t, published[0].NewMarks)
	assert.Equal(t, 60, *published[0].OldMarks)
	assert.Equal(t, 90, *published[0].NewMarks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddOrMerge_CreatesWhenAbsent(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE name=").
		WithArgs("B", "Physics").
		WillReturnRows(sqlmock.NewRows(studentCols))
	mock.ExpectExec("INSERT INTO students").
		WithArgs("B", "Physics", 40).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(uint64(7), model.ActionCreate, "B", "Physics",
			sql.NullInt64{}, sql.NullInt64{Int64: 40, Valid: true}, "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg, err := ledger.AddOrMerge(context.Background(), "B", "Physics", 40, actingTeacher(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Student added successfully", msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddOrMerge_ValidationShortCircuits(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	// No transaction is even opened for out-of-range marks.
	_, err := ledger.AddOrMerge(context.Background(), "A", "Math", 101, actingTeacher(), "")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Marks must be between 0 and 100", vErr.Msg)

	_, err = ledger.AddOrMerge(context.Background(), "   ", "Math", 50, actingTeacher(), "")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Name and subject are required", vErr.Msg)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddOrMerge_TruncatesLongFields(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	long := strings.Repeat("x", 120)
	want := long[:100]

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE name=").
		WithArgs(want, "Math").
		WillReturnRows(sqlmock.NewRows(studentCols))
	mock.ExpectExec("INSERT INTO students").
		WithArgs(want, "Math", 10).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(uint64(7), model.ActionCreate, want, "Math",
			sql.NullInt64{}, sql.NullInt64{Int64: 10, Valid: true}, "127.0.0.1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Empty client IP falls back to the loopback placeholder.
	_, err := ledger.AddOrMerge(context.Background(), long, "Math", 10, actingTeacher(), "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClampField_CountsCharactersNotBytes(t *testing.T) {
	// 120 two-byte characters must keep 100 characters, not 100 bytes.
	got := clampField(strings.Repeat("é", 120))
	assert.Equal(t, strings.Repeat("é", 100), got)
	assert.True(t, utf8.ValidString(got))

	// Three-byte characters within the limit pass through untouched even
	// though their byte length exceeds it.
	exact := strings.Repeat("日", 40)
	assert.Equal(t, exact, clampField(exact))
}

func TestUpdateMarks_Validation(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	_, err := ledger.UpdateMarks(context.Background(), 1, 150, actingTeacher(), "")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	// No transaction, no mutation, no audit entry.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMarks_NotFound(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(studentCols))
	mock.ExpectRollback()

	_, err := ledger.UpdateMarks(context.Background(), 99, 50, actingTeacher(), "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMarks_WritesAudit(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(studentRow(1, "A", "Math", 60))
	mock.ExpectExec("UPDATE students SET marks=").
		WithArgs(75, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(uint64(7), model.ActionUpdate, "A", "Math",
			sql.NullInt64{Int64: 60, Valid: true}, sql.NullInt64{Int64: 75, Valid: true}, "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg, err := ledger.UpdateMarks(context.Background(), 1, 75, actingTeacher(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Marks updated successfully", msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_AuditThenDelete(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(studentRow(1, "A", "Math", 60))
	// The DELETE audit entry with the pre-delete marks goes in before the
	// row disappears, in the same transaction.
	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(uint64(7), model.ActionDelete, "A", "Math",
			sql.NullInt64{Int64: 60, Valid: true}, sql.NullInt64{}, "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM students WHERE id=").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg, err := ledger.Delete(context.Background(), 1, actingTeacher(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Student deleted successfully", msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE id=").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(studentCols))
	mock.ExpectRollback()

	_, err := ledger.Delete(context.Background(), 42, actingTeacher(), "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Ordered(t *testing.T) {
	ledger, mock, db := newLedgerWithMock(t, nil)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, subject, marks, created_at, updated_at FROM students ORDER BY name ASC, subject ASC").
		WillReturnRows(studentRow(1, "A", "Math", 60).AddRow(2, "B", "Physics", 40,
			time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	students, err := ledger.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "A", students[0].Name)
	assert.Equal(t, "B", students[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
