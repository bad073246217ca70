package accounts

import (
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/tokens"
	"github.com/dalemusser/propertyhub/internal/domain/models"
)

// profileView is the caller's own account as returned by register, login
// and the profile endpoints.
type profileView struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	FullName          string     `json:"full_name"`
	Phone             string     `json:"phone"`
	UserType          string     `json:"user_type"`
	Bio               string     `json:"bio"`
	Location          string     `json:"location"`
	IsVerified        bool       `json:"is_verified"`
	IsPhoneVerified   bool       `json:"is_phone_verified"`
	IsEmailVerified   bool       `json:"is_email_verified"`
	CompanyName       string     `json:"company_name"`
	LicenseNumber     string     `json:"license_number"`
	Website           string     `json:"website"`
	PreferredContact  string     `json:"preferred_contact"`
	ShowContactInfo   bool       `json:"show_contact_info"`
	ReceiveMarketing  bool       `json:"receive_marketing"`
	IsAgent           bool       `json:"is_agent"`
	IsSeller          bool       `json:"is_seller"`
	CanPostProperties bool       `json:"can_post_properties"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLogin         *time.Time `json:"last_login"`
}

func newProfileView(u *models.User) profileView {
	return profileView{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		FullName:          u.FullName(),
		Phone:             u.Phone,
		UserType:          u.Role,
		Bio:               u.Bio,
		Location:          u.Location,
		IsVerified:        u.IsVerified,
		IsPhoneVerified:   u.IsPhoneVerified,
		IsEmailVerified:   u.IsEmailVerified,
		CompanyName:       u.CompanyName,
		LicenseNumber:     u.LicenseNumber,
		Website:           u.Website,
		PreferredContact:  u.PreferredContact,
		ShowContactInfo:   u.ShowContactInfo,
		ReceiveMarketing:  u.ReceiveMarketing,
		IsAgent:           u.IsAgent(),
		IsSeller:          u.IsSeller(),
		CanPostProperties: u.CanPostProperties(),
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		LastLogin:         u.LastLogin,
	}
}

// authResponse is returned by register and login.
type authResponse struct {
	User    profileView `json:"user"`
	Tokens  tokens.Pair `json:"tokens"`
	Message string      `json:"message"`
}

// extendedView is the extended profile with the owning user embedded.
type extendedView struct {
	User              profileView    `json:"user"`
	Preferences       models.DocMap  `json:"preferences"`
	SocialLinks       models.DocMap  `json:"social_links"`
	SavedSearches     models.DocList `json:"saved_searches"`
	PropertiesPosted  int            `json:"properties_posted"`
	PropertiesSold    int            `json:"properties_sold"`
	InquiriesReceived int            `json:"inquiries_received"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func newExtendedView(u *models.User, p *models.ExtendedProfile) extendedView {
	v := extendedView{
		User:              newProfileView(u),
		Preferences:       p.Preferences,
		SocialLinks:       p.SocialLinks,
		SavedSearches:     p.SavedSearches,
		PropertiesPosted:  p.PropertiesPosted,
		PropertiesSold:    p.PropertiesSold,
		InquiriesReceived: p.InquiriesReceived,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if v.Preferences == nil {
		v.Preferences = models.DocMap{}
	}
	if v.SocialLinks == nil {
		v.SocialLinks = models.DocMap{}
	}
	if v.SavedSearches == nil {
		v.SavedSearches = models.DocList{}
	}
	return v
}

type messageResponse struct {
	Message string `json:"message"`
}
