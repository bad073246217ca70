// internal/domain/models/favorite.go
package models

import "time"

// FavoriteProperty links a user to a listing they saved.
//
// PropertyTitle and PropertyPrice are copied from the listing when the
// favorite is created and are not kept in sync afterwards.
type FavoriteProperty struct {
	ID            int64     `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"-"`
	PropertyID    string    `db:"property_id" json:"property_id"`
	PropertyTitle string    `db:"property_title" json:"property_title"`
	PropertyPrice float64   `db:"property_price" json:"property_price"`
	AddedAt       time.Time `db:"added_at" json:"added_at"`
}
