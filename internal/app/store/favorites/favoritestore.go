// internal/app/store/favorites/favoritestore.go
package favoritestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned by Delete when the favorite does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("favorite not found")
	// ErrDuplicate is returned when the user already saved the listing.
	ErrDuplicate = errors.New("property is already in favorites")
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Create saves a favorite for f.UserID. Title and price are stored as given.
func (s *Store) Create(ctx context.Context, f models.FavoriteProperty) (models.FavoriteProperty, error) {
	f.AddedAt = time.Now().UTC()
	err := s.db.GetContext(ctx, &f.ID, `
INSERT INTO favorites (user_id, property_id, property_title, property_price, added_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		f.UserID, f.PropertyID, f.PropertyTitle, f.PropertyPrice, f.AddedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.FavoriteProperty{}, ErrDuplicate
		}
		return models.FavoriteProperty{}, err
	}
	return f, nil
}

// ListByUser returns the user's favorites, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.FavoriteProperty, error) {
	out := make([]models.FavoriteProperty, 0)
	if _, err := uuid.Parse(userID); err != nil {
		return out, nil
	}
	err := s.db.SelectContext(ctx, &out, `
SELECT id, user_id, property_id, property_title, property_price, added_at
FROM favorites WHERE user_id = $1
ORDER BY added_at DESC, id DESC`, userID)
	return out, err
}

// Delete removes a favorite owned by userID.
func (s *Store) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
