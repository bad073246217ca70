// internal/domain/models/user.go
package models

import (
	"time"
)

// User roles. A user's role decides whether they may post listings.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAgent  = "agent"
)

// Contact preferences.
const (
	ContactEmail = "email"
	ContactPhone = "phone"
	ContactBoth  = "both"
)

// Names of the counters in the statistics block.
const (
	StatPropertiesPosted  = "properties_posted"
	StatPropertiesSold    = "properties_sold"
	StatInquiriesReceived = "inquiries_received"
)

// UserStats is the cached statistics block kept on the identity side.
// It mirrors counts whose ground truth lives in the listing store.
type UserStats struct {
	PropertiesPosted  int `db:"properties_posted" json:"properties_posted"`
	PropertiesSold    int `db:"properties_sold" json:"properties_sold"`
	InquiriesReceived int `db:"inquiries_received" json:"inquiries_received"`
}

// User is an account in the identity store (PostgreSQL table "users").
//
// Users are never deleted; IsActive=false deactivates an account.
type User struct {
	ID               string `db:"id" json:"id"`
	Email            string `db:"email" json:"email"`
	Username         string `db:"username" json:"username"`
	FirstName        string `db:"first_name" json:"first_name"`
	LastName         string `db:"last_name" json:"last_name"`
	PasswordHash     string `db:"password_hash" json:"-"`
	Phone            string `db:"phone" json:"phone"`
	Role             string `db:"user_type" json:"user_type"` // buyer | seller | agent
	Bio              string `db:"bio" json:"bio"`
	Location         string `db:"location" json:"location"`
	CompanyName      string `db:"company_name" json:"company_name"`
	LicenseNumber    string `db:"license_number" json:"license_number"`
	Website          string `db:"website" json:"website"`
	PreferredContact string `db:"preferred_contact" json:"preferred_contact"`

	IsActive        bool `db:"is_active" json:"is_active"`
	IsStaff         bool `db:"is_staff" json:"is_staff"`
	IsVerified      bool `db:"is_verified" json:"is_verified"`
	IsPhoneVerified bool `db:"is_phone_verified" json:"is_phone_verified"`
	IsEmailVerified bool `db:"is_email_verified" json:"is_email_verified"`

	ShowContactInfo  bool `db:"show_contact_info" json:"show_contact_info"`
	ReceiveMarketing bool `db:"receive_marketing" json:"receive_marketing"`

	UserStats

	LastLogin *time.Time `db:"last_login" json:"last_login"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAgent reports whether the user is a real-estate agent.
func (u *User) IsAgent() bool { return u.Role == RoleAgent }

// IsSeller reports whether the user sells or lets property (agents included).
func (u *User) IsSeller() bool { return u.Role == RoleSeller || u.Role == RoleAgent }

// CanPostProperties holds exactly when the role is seller or agent and the
// account is verified.
func (u *User) CanPostProperties() bool {
	return u.IsSeller() && u.IsVerified
}

// ValidRole reports whether r is one of the known user roles.
func ValidRole(r string) bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAgent:
		return true
	}
	return false
}

// ValidContactPreference reports whether p is a known contact preference.
func ValidContactPreference(p string) bool {
	switch p {
	case ContactEmail, ContactPhone, ContactBoth:
		return true
	}
	return false
}
