package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const selectProfile = `
SELECT user_id, preferences, social_links, saved_searches,
       properties_posted, properties_sold, inquiries_received,
       created_at, updated_at
FROM user_profiles WHERE user_id = $1`

// GetExtended returns the extended profile of a user, creating an empty one
// if the row is missing.
func (s *Store) GetExtended(ctx context.Context, userID string) (*models.ExtendedProfile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrNotFound
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return nil, mapMissingUser(err)
	}

	var p models.ExtendedProfile
	if err := s.db.GetContext(ctx, &p, selectProfile, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateExtended replaces the free-form documents of a profile. Statistics
// are read-only here.
func (s *Store) UpdateExtended(ctx context.Context, p models.ExtendedProfile) error {
	if _, err := uuid.Parse(p.UserID); err != nil {
		return ErrNotFound
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO user_profiles (user_id, preferences, social_links, saved_searches, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
	preferences = EXCLUDED.preferences,
	social_links = EXCLUDED.social_links,
	saved_searches = EXCLUDED.saved_searches,
	updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Preferences, p.SocialLinks, p.SavedSearches, time.Now().UTC())
	return mapMissingUser(err)
}

// IncrementStat adds delta to one counter in a single statement, clamping
// the result at zero. A missing profile row is created.
func (s *Store) IncrementStat(ctx context.Context, userID, field string, delta int) error {
	if !statColumns[field] {
		return ErrUnknownStat
	}
	if _, err := uuid.Parse(userID); err != nil {
		return ErrNotFound
	}
	q := fmt.Sprintf(`
INSERT INTO user_profiles (user_id, %[1]s) VALUES ($1, GREATEST($2, 0))
ON CONFLICT (user_id) DO UPDATE SET
	%[1]s = GREATEST(user_profiles.%[1]s + $2, 0),
	updated_at = now()`, field)
	_, err := s.db.ExecContext(ctx, q, userID, delta)
	return mapMissingUser(err)
}

// GetStat returns one counter, or 0 when the user has no profile row.
func (s *Store) GetStat(ctx context.Context, userID, field string) (int, error) {
	if !statColumns[field] {
		return 0, ErrUnknownStat
	}
	if _, err := uuid.Parse(userID); err != nil {
		return 0, ErrNotFound
	}
	var n int
	err := s.db.GetContext(ctx, &n, fmt.Sprintf(`SELECT %s FROM user_profiles WHERE user_id = $1`, field), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// StatSnapshot returns every non-zero value of a counter keyed by user id.
// Users missing from the map hold 0.
func (s *Store) StatSnapshot(ctx context.Context, field string) (map[string]int, error) {
	if !statColumns[field] {
		return nil, ErrUnknownStat
	}
	var rows []struct {
		UserID string `db:"user_id"`
		Value  int    `db:"value"`
	}
	q := fmt.Sprintf(`SELECT user_id::text AS user_id, %[1]s AS value FROM user_profiles WHERE %[1]s <> 0`, field)
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.Value
	}
	return out, nil
}

// CompareAndSetStat writes value only if the counter still equals observed
// (a missing row counts as 0). It reports whether the write happened, so a
// concurrent IncrementStat is never overwritten.
func (s *Store) CompareAndSetStat(ctx context.Context, userID, field string, observed, value int) (bool, error) {
	if !statColumns[field] {
		return false, ErrUnknownStat
	}
	if _, err := uuid.Parse(userID); err != nil {
		return false, ErrNotFound
	}
	if value < 0 {
		value = 0
	}
	q := fmt.Sprintf(`
INSERT INTO user_profiles (user_id, %[1]s)
SELECT $1::uuid, $3::int WHERE $2::int = 0
ON CONFLICT (user_id) DO UPDATE SET %[1]s = $3::int, updated_at = now()
WHERE user_profiles.%[1]s = $2::int`, field)
	res, err := s.db.ExecContext(ctx, q, userID, observed, value)
	if err != nil {
		return false, mapMissingUser(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// mapMissingUser turns a foreign-key violation on user_id into ErrNotFound.
func mapMissingUser(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrNotFound
	}
	return err
}
