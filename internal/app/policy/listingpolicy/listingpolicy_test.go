package listingpolicy_test

import (
	"testing"

	"github.com/dalemusser/propertyhub/internal/app/policy/listingpolicy"
	"github.com/dalemusser/propertyhub/internal/domain/models"
)

func user(id, role string, verified, staff bool) *models.User {
	return &models.User{ID: id, Role: role, IsVerified: verified, IsStaff: staff, IsActive: true}
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name string
		u    *models.User
		want bool
	}{
		{"nil user", nil, false},
		{"buyer verified", user("1", models.RoleBuyer, true, false), false},
		{"seller unverified", user("1", models.RoleSeller, false, false), false},
		{"seller verified", user("1", models.RoleSeller, true, false), true},
		{"agent verified", user("1", models.RoleAgent, true, false), true},
		{"agent unverified staff", user("1", models.RoleAgent, false, true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listingpolicy.CanCreate(tt.u); got != tt.want {
				t.Errorf("CanCreate: got %v, want %v", got, tt.want)
			}
		})
	}

	inactive := user("1", models.RoleAgent, true, false)
	inactive.IsActive = false
	if listingpolicy.CanCreate(inactive) {
		t.Error("inactive user should not be able to create")
	}
}

func TestCanModify(t *testing.T) {
	p := &models.Property{OwnerID: "owner", CreatedByID: "creator"}

	tests := []struct {
		name string
		u    *models.User
		want bool
	}{
		{"nil user", nil, false},
		{"owner", user("owner", models.RoleSeller, true, false), true},
		{"creator", user("creator", models.RoleAgent, true, false), true},
		{"staff", user("someone", models.RoleBuyer, false, true), true},
		{"stranger", user("someone", models.RoleAgent, true, false), false},
		{"empty id", user("", models.RoleAgent, true, false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listingpolicy.CanModify(tt.u, p); got != tt.want {
				t.Errorf("CanModify: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShowOwnerFields(t *testing.T) {
	p := &models.Property{OwnerID: "owner", CreatedByID: "owner"}
	stranger := user("x", models.RoleBuyer, false, false)

	if listingpolicy.ShowOwnerFields(nil, p, false) {
		t.Error("anonymous detail view should hide owner fields")
	}
	if !listingpolicy.ShowOwnerFields(nil, p, true) {
		t.Error("explicit include should show owner fields")
	}
	if listingpolicy.ShowOwnerFields(stranger, p, false) {
		t.Error("stranger detail view should hide owner fields")
	}
	if !listingpolicy.ShowOwnerFields(user("owner", models.RoleSeller, true, false), p, false) {
		t.Error("owner should see owner fields")
	}
	if !listingpolicy.ShowOwnerFields(user("x", models.RoleBuyer, false, true), p, false) {
		t.Error("staff should see owner fields")
	}
}

func TestCanSee(t *testing.T) {
	private := &models.Property{OwnerID: "owner", IsPublic: false}
	if listingpolicy.CanSee(nil, private) {
		t.Error("anonymous should not see private listing")
	}
	if !listingpolicy.CanSee(user("owner", models.RoleSeller, true, false), private) {
		t.Error("owner should see private listing")
	}
	public := &models.Property{IsPublic: true}
	if !listingpolicy.CanSee(nil, public) {
		t.Error("anonymous should see public listing")
	}
}

func TestSnapshotContact(t *testing.T) {
	u := &models.User{
		FirstName:        "Ada",
		LastName:         "Agent",
		Email:            "ada@example.com",
		Phone:            "+15555550100",
		PreferredContact: models.ContactPhone,
		ShowContactInfo:  true,
	}
	got := listingpolicy.SnapshotContact(u)
	if got.Email != u.Email || got.Phone != u.Phone || got.Preferred != models.ContactPhone {
		t.Errorf("snapshot: got %+v", got)
	}
	if got.Name != "Ada Agent" {
		t.Errorf("name: got %q", got.Name)
	}

	u.ShowContactInfo = false
	if snap := listingpolicy.SnapshotContact(u); !snap.IsZero() {
		t.Errorf("hidden contact info should produce empty snapshot, got %+v", snap)
	}
}
