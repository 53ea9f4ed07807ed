package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"bizcore/auth"
	"bizcore/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func tokenColumns() []string {
	return []string{"id", "created_at", "updated_at", "deleted_at", "token", "user_id", "expiry_date", "revoked"}
}

func tokenRow(id uint, token string, userID uint, expiry time.Time, revoked bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tokenColumns()).
		AddRow(id, now, now, nil, token, userID, expiry, revoked)
}

func TestFindByToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM `refresh_tokens` WHERE token = ").
			WithArgs("tok-1", 1).
			WillReturnRows(tokenRow(5, "tok-1", 1, time.Now().Add(time.Hour), false))

		rec, err := repo.FindByToken("tok-1")
		require.NoError(t, err)
		assert.Equal(t, uint(5), rec.ID)
		assert.Equal(t, uint(1), rec.UserID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM `refresh_tokens` WHERE token = ").
			WithArgs("missing", 1).
			WillReturnRows(sqlmock.NewRows(tokenColumns()))

		_, err := repo.FindByToken("missing")
		assert.ErrorIs(t, err, auth.ErrTokenNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceForUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `users` WHERE (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("DELETE FROM `refresh_tokens` WHERE user_id = ").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `refresh_tokens`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	tok := &models.RefreshToken{Token: "tok-new", UserID: 1, ExpiryDate: time.Now().Add(time.Hour)}
	require.NoError(t, repo.ReplaceForUser(1, tok))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsume(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("live token is revoked and siblings removed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTokenRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM `refresh_tokens` WHERE token = (.+) FOR UPDATE").
			WillReturnRows(tokenRow(5, "tok-1", 1, now.Add(time.Hour), false))
		mock.ExpectExec("UPDATE `refresh_tokens` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM `refresh_tokens` WHERE user_id = (.+) AND id <> ").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		rec, err := repo.Consume("tok-1", now)
		require.NoError(t, err)
		assert.Equal(t, uint(1), rec.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoked token reports replay", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTokenRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM `refresh_tokens` WHERE token = (.+) FOR UPDATE").
			WillReturnRows(tokenRow(5, "tok-1", 1, now.Add(time.Hour), true))
		mock.ExpectCommit()

		_, err := repo.Consume("tok-1", now)
		assert.ErrorIs(t, err, auth.ErrTokenRevoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired token is deleted and the delete sticks", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTokenRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM `refresh_tokens` WHERE token = (.+) FOR UPDATE").
			WillReturnRows(tokenRow(5, "tok-1", 1, now.Add(-time.Hour), false))
		mock.ExpectExec("DELETE FROM `refresh_tokens` WHERE `refresh_tokens`\\.`id` = ").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := repo.Consume("tok-1", now)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown token", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTokenRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM `refresh_tokens` WHERE token = (.+) FOR UPDATE").
			WillReturnRows(sqlmock.NewRows(tokenColumns()))
		mock.ExpectRollback()

		_, err := repo.Consume("missing", now)
		assert.ErrorIs(t, err, auth.ErrTokenNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRevokeAllForUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `refresh_tokens` SET").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.RevokeAllForUser(1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `refresh_tokens` WHERE expiry_date < ").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.DeleteExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
