// Package listingpolicy provides authorization policies for property listings.
//
// Authorization rules:
//   - Only verified sellers and agents can create listings
//   - A listing can be edited or deleted by its owner, its creator, or staff
//   - Owner fields (owner_id, created_by_id, contact_info) are shown to the
//     owner, the creator and staff; other callers see them only when the
//     view explicitly asks for owner info (list views always do)
//   - Non-public listings are only visible to the owner, the creator and staff
package listingpolicy

import (
	"github.com/dalemusser/propertyhub/internal/domain/models"
)

// CanCreate reports whether u may post a new listing.
// A nil user (unauthenticated) can never create.
func CanCreate(u *models.User) bool {
	return u != nil && u.IsActive && u.CanPostProperties()
}

// IsOwnerOrCreator reports whether u is referenced by the listing's
// ownership fields.
func IsOwnerOrCreator(u *models.User, p *models.Property) bool {
	if u == nil || p == nil || u.ID == "" {
		return false
	}
	return u.ID == p.OwnerID || u.ID == p.CreatedByID
}

// CanModify reports whether u may update or delete p.
//
// Authorization:
//   - Owner or creator: yes
//   - Staff: yes
//   - Everyone else: no
func CanModify(u *models.User, p *models.Property) bool {
	if u == nil || p == nil {
		return false
	}
	return u.IsStaff || IsOwnerOrCreator(u, p)
}

// ShowOwnerFields decides whether a view of p includes the ownership fields
// and the contact snapshot. includeOwner is set by list views and by detail
// views that explicitly request owner info.
func ShowOwnerFields(u *models.User, p *models.Property, includeOwner bool) bool {
	if includeOwner {
		return true
	}
	if u == nil {
		return false
	}
	return u.IsStaff || IsOwnerOrCreator(u, p)
}

// CanSee reports whether u may see p at all.
func CanSee(u *models.User, p *models.Property) bool {
	if p == nil {
		return false
	}
	if p.IsPublic {
		return true
	}
	return u != nil && (u.IsStaff || IsOwnerOrCreator(u, p))
}

// SeesPrivateListings reports whether list queries for u skip the
// public-only visibility clause.
func SeesPrivateListings(u *models.User) bool {
	return u != nil && u.IsStaff
}

// SnapshotContact copies the contact details u has opted to show.
// When ShowContactInfo is false the snapshot is empty.
func SnapshotContact(u *models.User) models.ContactInfo {
	if u == nil || !u.ShowContactInfo {
		return models.ContactInfo{}
	}
	return models.ContactInfo{
		Name:      u.FullName(),
		Email:     u.Email,
		Phone:     u.Phone,
		Preferred: u.PreferredContact,
	}
}
