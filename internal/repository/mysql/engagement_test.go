package mysql

import (
	"context"
	"testing"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/pulsefeed/engagement-core/domain"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormMysql.New(gormMysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return db, mock
}

var testEdge = domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindLike}

func TestToggle_InsertWhenAbsent(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewEngagementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `engagement_edge`").
		WithArgs(testEdge.PostID, testEdge.UserID, string(testEdge.Kind)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `engagement_edge`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	on, err := repo.Toggle(context.Background(), testEdge)
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggle_DeleteWhenPresent(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewEngagementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `engagement_edge`").
		WithArgs(testEdge.PostID, testEdge.UserID, string(testEdge.Kind)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	on, err := repo.Toggle(context.Background(), testEdge)
	require.NoError(t, err)
	assert.False(t, on)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggle_InsertRaceLoserGetsConflict(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewEngagementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `engagement_edge`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `engagement_edge`").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Toggle(context.Background(), testEdge)
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetState_OnInsertIgnore(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewEngagementRepository(db)

	t.Run("FirstWriteChanges", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `engagement_edge`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		changed, err := repo.SetState(context.Background(), testEdge, true)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("RepeatIsNoOp", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `engagement_edge`").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		changed, err := repo.SetState(context.Background(), testEdge, true)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetState_OffDeletes(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewEngagementRepository(db)

	t.Run("PresentEdgeChanges", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `engagement_edge`").
			WithArgs(testEdge.PostID, testEdge.UserID, string(testEdge.Kind)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		changed, err := repo.SetState(context.Background(), testEdge, false)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("AbsentEdgeIsNoOp", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `engagement_edge`").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		changed, err := repo.SetState(context.Background(), testEdge, false)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEdges(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewEngagementRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `engagement_edge`").
		WithArgs(int64(7), string(domain.KindBookmark)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountEdges(context.Background(), 7, domain.KindBookmark)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestFetchEngagedTargets(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewEngagementRepository(db)

	mock.ExpectQuery("SELECT `post_id` FROM `engagement_edge`").
		WithArgs(int64(42), string(domain.KindLike), int64(300)).
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(9).AddRow(7).AddRow(3))

	ids, err := repo.FetchEngagedTargets(context.Background(), 42, domain.KindLike, 300)
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 7, 3}, ids)
}
