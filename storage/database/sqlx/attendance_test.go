package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceDeleteDay(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")
	repo := NewAttendanceRepository(db)

	ctx := context.Background()
	courseID := uuid.New().String()

	t.Run("locks the course row before deleting", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT id FROM courses WHERE id = \$1 FOR UPDATE`).
			WithArgs(courseID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM attendance WHERE course_id = \$1 AND date = \$2::date`).
			WithArgs(courseID, "2024-03-01").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		tx, err := db.Beginx()
		require.NoError(t, err)
		require.NoError(t, repo.DeleteDay(ctx, courseID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), tx))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid course id", func(t *testing.T) {
		assert.NoError(t, repo.DeleteDay(ctx, "nope", time.Now()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
