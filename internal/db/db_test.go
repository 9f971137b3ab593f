package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestMigrateAppliesAllStatements(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS groups`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS posts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS comments`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_posts_group_id`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_comments_post_id`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(sqlx.NewDb(mockDB, "sqlmock")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS groups`).WillReturnError(errors.New("exec failed"))

	require.Error(t, Migrate(sqlx.NewDb(mockDB, "sqlmock")))
}

// Deleting a group or post must leave its children orphaned; an enforced
// foreign key on posts.group_id or comments.post_id would turn those
// deletes into constraint violations instead.
func TestSchemaDoesNotEnforceParentReferences(t *testing.T) {
	for _, m := range migrations {
		require.NotContains(t, m, "REFERENCES")
		require.NotContains(t, m, "FOREIGN KEY")
	}
}
