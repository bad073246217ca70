// internal/domain/models/property.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Property types.
const (
	TypeHouse     = "house"
	TypeApartment = "apartment"
	TypeCondo     = "condo"
	TypeTownhouse = "townhouse"
	TypeLand      = "land"
)

// Listing statuses.
const (
	StatusSale   = "sale"
	StatusRent   = "rent"
	StatusSold   = "sold"
	StatusRented = "rented"
)

// ContactInfo is a snapshot of the owner's contact details taken when the
// listing was created. It is never refreshed afterwards, so it can go stale
// if the owner later changes their contact preferences.
type ContactInfo struct {
	Name      string `bson:"name,omitempty" json:"name,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	Preferred string `bson:"preferred,omitempty" json:"preferred,omitempty"`
}

// IsZero reports whether the snapshot carries no contact details.
func (c ContactInfo) IsZero() bool {
	return c == ContactInfo{}
}

// Property is a listing document in the "properties" collection.
//
// OwnerID and CreatedByID are weak references to User.ID; they are set once
// at creation and never change.
type Property struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	PropertyType string             `bson:"property_type" json:"property_type"`
	Status       string             `bson:"status" json:"status"`
	Price        float64            `bson:"price" json:"price"`
	Bedrooms     int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms    int                `bson:"bathrooms" json:"bathrooms"`
	Area         int                `bson:"area" json:"area"`
	Address      string             `bson:"address" json:"address"`
	City         string             `bson:"city" json:"city"`
	State        string             `bson:"state" json:"state"`
	ZipCode      string             `bson:"zip_code" json:"zip_code"`
	Latitude     float64            `bson:"latitude" json:"latitude"`
	Longitude    float64            `bson:"longitude" json:"longitude"`
	Image        string             `bson:"image" json:"image"`
	Featured     bool               `bson:"featured" json:"featured"`
	IsPublic     bool               `bson:"is_public" json:"is_public"`

	OwnerID     string      `bson:"owner_id" json:"owner_id"`
	CreatedByID string      `bson:"created_by_id" json:"created_by_id"`
	ContactInfo ContactInfo `bson:"contact_info" json:"contact_info"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidPropertyType reports whether t is a known property type.
func ValidPropertyType(t string) bool {
	switch t {
	case TypeHouse, TypeApartment, TypeCondo, TypeTownhouse, TypeLand:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known listing status.
func ValidStatus(s string) bool {
	switch s {
	case StatusSale, StatusRent, StatusSold, StatusRented:
		return true
	}
	return false
}
