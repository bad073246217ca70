package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/propertyhub/internal/app/system/authutil"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
)

// FixturePassword is the password of every user created by Fixtures.
const FixturePassword = "Correct-Horse-9"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call a handler method directly.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures creates users and listings in the in-memory stores.
type Fixtures struct {
	t        *testing.T
	Users    *MemUsers
	Listings *MemListings
	hash     string
}

// NewFixtures returns fixtures over fresh in-memory stores.
func NewFixtures(t *testing.T) *Fixtures {
	t.Helper()
	hash, err := authutil.HashPassword(FixturePassword)
	if err != nil {
		t.Fatalf("hash fixture password: %v", err)
	}
	return &Fixtures{t: t, Users: NewMemUsers(), Listings: NewMemListings(), hash: hash}
}

// CreateUser creates an active user with the given role and
// FixturePassword. The username is derived from the email.
func (f *Fixtures) CreateUser(ctx context.Context, email, role string, verified bool) *models.User {
	f.t.Helper()
	u, err := f.Users.Create(ctx, models.User{
		Email:        email,
		Username:     text.Fold(email),
		FirstName:    "Test",
		LastName:     role,
		PasswordHash: f.hash,
		Role:         role,
	})
	if err != nil {
		f.t.Fatalf("create user %s: %v", email, err)
	}
	if verified {
		if err := f.Users.SetVerified(ctx, u.ID, true); err != nil {
			f.t.Fatalf("verify user %s: %v", email, err)
		}
	}
	out, _ := f.Users.GetByID(ctx, u.ID)
	return out
}

// CreateBuyer creates a verified buyer.
func (f *Fixtures) CreateBuyer(ctx context.Context, email string) *models.User {
	return f.CreateUser(ctx, email, models.RoleBuyer, true)
}

// CreateAgent creates a verified agent who shows their contact details.
func (f *Fixtures) CreateAgent(ctx context.Context, email string) *models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, email, models.RoleAgent, true)
	u.ShowContactInfo = true
	u.Phone = "5550100"
	if err := f.Users.UpdateProfile(ctx, *u); err != nil {
		f.t.Fatalf("update agent %s: %v", email, err)
	}
	out, _ := f.Users.GetByID(ctx, u.ID)
	return out
}

// CreateStaff creates a staff user.
func (f *Fixtures) CreateStaff(ctx context.Context, email string) *models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, email, models.RoleBuyer, true)
	u.IsStaff = true
	return ptr(f.Users.Put(*u))
}

// CreateDisabledUser creates a deactivated buyer.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, email string) *models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, email, models.RoleBuyer, true)
	if err := f.Users.SetActive(ctx, u.ID, false); err != nil {
		f.t.Fatalf("disable user %s: %v", email, err)
	}
	out, _ := f.Users.GetByID(ctx, u.ID)
	return out
}

// CreateListing inserts a public listing owned by owner.
func (f *Fixtures) CreateListing(ctx context.Context, owner *models.User, title string, price float64) models.Property {
	f.t.Helper()
	p := models.Property{
		Title:        title,
		Price:        price,
		PropertyType: models.TypeHouse,
		Status:       models.StatusSale,
		IsPublic:     true,
		OwnerID:      owner.ID,
		CreatedByID:  owner.ID,
	}
	if _, err := f.Listings.Insert(ctx, &p); err != nil {
		f.t.Fatalf("insert listing %s: %v", title, err)
	}
	return p
}

func ptr[T any](v T) *T { return &v }
