package repositories

import (
	"errors"
	"time"

	"bizcore/auth"
	"bizcore/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository is the persistence boundary for refresh tokens. The two
// multi-statement operations, ReplaceForUser and Consume, each run inside a
// single transaction so the "at most one live token per user" invariant can
// never be observed broken, even under concurrent logins or rotations.
type TokenRepository interface {
	FindByToken(token string) (*models.RefreshToken, error)
	DeleteByID(id uint) error

	// ReplaceForUser deletes every token owned by userID and inserts tok,
	// atomically. Serialized per user via a row lock on the user record.
	ReplaceForUser(userID uint, tok *models.RefreshToken) error

	// Consume marks the named token revoked and removes every other token
	// of its owner, atomically. Concurrent consumers of the same token are
	// serialized by a row lock; the loser observes ErrTokenRevoked.
	Consume(token string, now time.Time) (*models.RefreshToken, error)

	// RevokeAllForUser flags all live tokens of the user revoked. Idempotent.
	RevokeAllForUser(userID uint) error

	// DeleteExpired removes tokens past expiry. Storage hygiene only.
	DeleteExpired(cutoff time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

var _ TokenRepository = (*tokenRepository)(nil)

// NewTokenRepository creates a new TokenRepository instance.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	result := r.db.Where("token = ?", token).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, result.Error
	}
	return &rec, nil
}

func (r *tokenRepository) DeleteByID(id uint) error {
	return r.db.Unscoped().Delete(&models.RefreshToken{}, id).Error
}

func (r *tokenRepository) ReplaceForUser(userID uint, tok *models.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Lock the owning user row so two concurrent logins cannot both
		// pass the delete step and each insert a token.
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&user, userID).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().
			Where("user_id = ?", userID).
			Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(tok).Error
	})
}

func (r *tokenRepository) Consume(token string, now time.Time) (*models.RefreshToken, error) {
	// The expired branch deletes the row and must still commit, so the
	// business outcome travels in consumeErr instead of failing the
	// transaction.
	var rec models.RefreshToken
	var consumeErr error
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token = ?", token).First(&rec)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return auth.ErrTokenNotFound
			}
			return result.Error
		}
		if rec.Revoked {
			// A previous rotation already spent this token; replay.
			consumeErr = auth.ErrTokenRevoked
			return nil
		}
		if now.After(rec.ExpiryDate) {
			if err := tx.Unscoped().Delete(&models.RefreshToken{}, rec.ID).Error; err != nil {
				return err
			}
			consumeErr = auth.ErrTokenExpired
			return nil
		}
		if err := tx.Model(&rec).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Unscoped().
			Where("user_id = ? AND id <> ?", rec.UserID, rec.ID).
			Delete(&models.RefreshToken{}).Error
	})
	if err != nil {
		return nil, err
	}
	if consumeErr != nil {
		return nil, consumeErr
	}
	return &rec, nil
}

func (r *tokenRepository) RevokeAllForUser(userID uint) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

func (r *tokenRepository) DeleteExpired(cutoff time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("expiry_date < ?", cutoff).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
