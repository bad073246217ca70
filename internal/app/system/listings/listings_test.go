package listings_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/events"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"github.com/dalemusser/propertyhub/internal/app/system/metrics"
	"github.com/dalemusser/propertyhub/internal/app/system/ordering"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/dalemusser/propertyhub/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type harness struct {
	svc      *listings.Service
	listings *testutil.MemListings
	stats    *testutil.MemStats
	pub      *testutil.RecordingPublisher
	metrics  *metrics.Metrics
}

func newHarness(t *testing.T, cfg listings.Config) *harness {
	t.Helper()
	h := &harness{
		listings: testutil.NewMemListings(),
		stats:    testutil.NewMemStats(),
		pub:      &testutil.RecordingPublisher{},
		metrics:  metrics.New(),
	}
	h.svc = listings.New(h.listings, h.stats, h.pub, h.metrics, cfg, zap.NewNop())

	// Monotonic clock so created_at ordering is deterministic.
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	h.svc.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	return h
}

func agent(id string) *models.User {
	return &models.User{
		ID: id, Email: id + "@example.com", FirstName: "Ann", LastName: "Agent",
		Phone: "+15550001111", Role: models.RoleAgent, PreferredContact: models.ContactPhone,
		IsActive: true, IsVerified: true, ShowContactInfo: true,
	}
}

func buyer(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", Role: models.RoleBuyer, IsActive: true, IsVerified: true}
}

func staff(id string) *models.User {
	return &models.User{ID: id, Role: models.RoleBuyer, IsActive: true, IsStaff: true}
}

func ctx() context.Context { return context.Background() }

func mustCreate(t *testing.T, h *harness, u *models.User, payload formutil.Payload) *models.Property {
	t.Helper()
	p, err := h.svc.Create(ctx(), u, payload)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	h := newHarness(t, listings.Config{})
	_, err := h.svc.Create(ctx(), nil, formutil.Payload{"title": "X"})
	if !errors.Is(err, apierr.ErrUnauthorized) {
		t.Errorf("got %v, want unauthorized", err)
	}
}

func TestCreate_ForbiddenForNonPosters(t *testing.T) {
	h := newHarness(t, listings.Config{})

	unverified := agent("u1")
	unverified.IsVerified = false
	seller := &models.User{ID: "u2", Role: models.RoleSeller, IsActive: true, IsVerified: true}

	tests := []struct {
		name string
		user *models.User
		want error
	}{
		{"buyer", buyer("b1"), apierr.ErrForbidden},
		{"unverified agent", unverified, apierr.ErrForbidden},
		{"verified seller", seller, nil},
		{"verified agent", agent("a1"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx(), tt.user, formutil.Payload{"title": "Home"})
			if tt.want == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if got := h.listings.Len(); got != 2 {
		t.Errorf("stored listings: got %d, want 2", got)
	}
}

func TestCreate_StampsOwnershipAndSnapshot(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")

	p := mustCreate(t, h, a, formutil.Payload{
		"title":    "Lake House",
		"owner_id": "someone-else",
		"contact_info": map[string]any{
			"email": "spoof@example.com",
		},
	})

	if p.OwnerID != "a1" || p.CreatedByID != "a1" {
		t.Errorf("ownership: owner=%q creator=%q, want a1", p.OwnerID, p.CreatedByID)
	}
	want := models.ContactInfo{Name: "Ann Agent", Email: "a1@example.com", Phone: "+15550001111", Preferred: models.ContactPhone}
	if p.ContactInfo != want {
		t.Errorf("contact snapshot: got %+v, want %+v", p.ContactInfo, want)
	}
	if p.PropertyType != models.TypeHouse || p.Status != models.StatusSale || !p.IsPublic {
		t.Errorf("defaults: type=%q status=%q public=%v", p.PropertyType, p.Status, p.IsPublic)
	}
	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 1 {
		t.Errorf("properties_posted: got %d, want 1", got)
	}
	if subj := h.pub.Subjects(); len(subj) != 1 || subj[0] != events.SubjectListingCreated {
		t.Errorf("events: got %v", subj)
	}
}

func TestCreate_NoSnapshotWhenContactHidden(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")
	a.ShowContactInfo = false

	p := mustCreate(t, h, a, formutil.Payload{"title": "Quiet Place"})
	if !p.ContactInfo.IsZero() {
		t.Errorf("expected empty snapshot, got %+v", p.ContactInfo)
	}
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")

	tests := []struct {
		name    string
		payload formutil.Payload
		field   string
	}{
		{"missing title", formutil.Payload{"price": json.Number("1")}, "title"},
		{"non-numeric price", formutil.Payload{"title": "X", "price": "lots"}, "price"},
		{"fractional string bedrooms", formutil.Payload{"title": "X", "bedrooms": "2.5"}, "bedrooms"},
		{"negative area", formutil.Payload{"title": "X", "area": json.Number("-5")}, "area"},
		{"bad type", formutil.Payload{"title": "X", "property_type": "castle"}, "property_type"},
		{"bad status", formutil.Payload{"title": "X", "status": "auction"}, "status"},
		{"bad image", formutil.Payload{"title": "X", "image": "not a url"}, "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx(), a, tt.payload)
			var e *apierr.Error
			if !errors.As(err, &e) || e.Kind != apierr.KindValidation {
				t.Fatalf("got %v, want validation error", err)
			}
			if e.Field != tt.field {
				t.Errorf("field: got %q, want %q", e.Field, tt.field)
			}
		})
	}
	if h.listings.Len() != 0 {
		t.Error("invalid payloads must not be stored")
	}
	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 0 {
		t.Errorf("properties_posted: got %d, want 0", got)
	}
}

func TestCreate_CoercesNumbers(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{
		"title":     "Numbers",
		"price":     "450000",
		"bedrooms":  json.Number("3.9"),
		"bathrooms": "2",
		"latitude":  json.Number("41.88"),
		"featured":  "true",
	})
	if p.Price != 450000 || p.Bedrooms != 3 || p.Bathrooms != 2 || p.Latitude != 41.88 || !p.Featured {
		t.Errorf("coercion: %+v", p)
	}
}

func TestCreate_CounterFailureDoesNotFailRequest(t *testing.T) {
	h := newHarness(t, listings.Config{})
	h.stats.Fail = true

	p, err := h.svc.Create(ctx(), agent("a1"), formutil.Payload{"title": "Still Saved"})
	if err != nil {
		t.Fatalf("Create should succeed despite counter failure: %v", err)
	}
	if h.listings.Len() != 1 {
		t.Error("listing should remain stored")
	}
	if got := promtest.ToFloat64(h.metrics.CounterDrift.WithLabelValues("create")); got != 1 {
		t.Errorf("drift metric: got %v, want 1", got)
	}

	var drift *events.CounterDrift
	for _, e := range h.pub.Events {
		if e.Subject == events.SubjectCounterDrift {
			ev := e.Payload.(events.CounterDrift)
			drift = &ev
		}
	}
	if drift == nil {
		t.Fatal("expected a counter drift event")
	}
	if drift.UserID != "a1" || drift.Delta != 1 || drift.PropertyID != p.ID.Hex() {
		t.Errorf("drift event: %+v", drift)
	}
}

func TestCreate_DocumentFailureSkipsCounter(t *testing.T) {
	h := newHarness(t, listings.Config{})
	h.listings.FailWrites = true

	if _, err := h.svc.Create(ctx(), agent("a1"), formutil.Payload{"title": "X"}); err == nil {
		t.Fatal("expected error when the listing write fails")
	}
	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 0 {
		t.Errorf("properties_posted: got %d, want 0", got)
	}
}

func TestUpdate_Authorization(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "Mine"})
	id := p.ID.Hex()

	tests := []struct {
		name string
		user *models.User
		want error
	}{
		{"anonymous", nil, apierr.ErrUnauthorized},
		{"other agent", agent("a2"), apierr.ErrForbidden},
		{"buyer", buyer("b1"), apierr.ErrForbidden},
		{"owner", agent("a1"), nil},
		{"staff", staff("s1"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Update(ctx(), tt.user, id, formutil.Payload{"price": json.Number("10")})
			if tt.want == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdate_CreatorWhoIsNotOwner(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := &models.Property{Title: "Listed for a client", OwnerID: "client", CreatedByID: "a1", IsPublic: true}
	if _, err := h.listings.Insert(ctx(), p); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.Update(ctx(), agent("a1"), p.ID.Hex(), formutil.Payload{"city": "Reno"}); err != nil {
		t.Errorf("creator should be allowed to update: %v", err)
	}
}

func TestUpdate_PartialMergeAndImmutableFields(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{
		"title": "Cottage", "city": "Bend", "price": json.Number("300000"), "bedrooms": json.Number("2"),
	})
	created := p.CreatedAt
	snapshot := p.ContactInfo

	got, err := h.svc.Update(ctx(), agent("a1"), p.ID.Hex(), formutil.Payload{
		"price":         "325000",
		"owner_id":      "hijack",
		"created_by_id": "hijack",
		"created_at":    "1999-01-01T00:00:00Z",
		"contact_info":  map[string]any{"email": "x@example.com"},
		"id":            "000000000000000000000000",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got.Price != 325000 {
		t.Errorf("price: got %v, want 325000", got.Price)
	}
	if got.City != "Bend" || got.Bedrooms != 2 || got.Title != "Cottage" {
		t.Errorf("absent keys must be unchanged: %+v", got)
	}
	if got.OwnerID != "a1" || got.CreatedByID != "a1" {
		t.Errorf("ownership changed: owner=%q creator=%q", got.OwnerID, got.CreatedByID)
	}
	if !got.CreatedAt.Equal(created) || got.ContactInfo != snapshot || got.ID != p.ID {
		t.Error("created_at, contact_info and id must be immutable")
	}
	if !got.UpdatedAt.After(created) {
		t.Error("updated_at should advance")
	}

	stored, _ := h.listings.FindByID(ctx(), p.ID)
	if stored.Price != 325000 {
		t.Errorf("stored price: got %v", stored.Price)
	}
}

func TestUpdate_ValidationAndNotFound(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "X"})

	if _, err := h.svc.Update(ctx(), agent("a1"), p.ID.Hex(), formutil.Payload{"bathrooms": "two"}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("non-numeric: got %v, want validation", err)
	}
	if _, err := h.svc.Update(ctx(), agent("a1"), p.ID.Hex(), formutil.Payload{"title": "  "}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("blank title: got %v, want validation", err)
	}
	if _, err := h.svc.Update(ctx(), agent("a1"), "ffffffffffffffffffffffff", formutil.Payload{}); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("missing id: got %v, want not found", err)
	}
	if _, err := h.svc.Update(ctx(), agent("a1"), "not-an-id", formutil.Payload{}); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("malformed id: got %v, want not found", err)
	}
}

func TestDelete_DecrementsOwnerCounter(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")
	p1 := mustCreate(t, h, a, formutil.Payload{"title": "One"})
	mustCreate(t, h, a, formutil.Payload{"title": "Two"})

	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 2 {
		t.Fatalf("before delete: got %d, want 2", got)
	}
	if err := h.svc.Delete(ctx(), a, p1.ID.Hex()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 1 {
		t.Errorf("after delete: got %d, want 1", got)
	}
}

func TestDelete_ByStaffDecrementsOwnerNotStaff(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "One"})

	if err := h.svc.Delete(ctx(), staff("s1"), p.ID.Hex()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 0 {
		t.Errorf("owner counter: got %d, want 0", got)
	}
	if got := h.stats.Get("s1", models.StatPropertiesPosted); got != 0 {
		t.Errorf("staff counter must be untouched, got %d", got)
	}
}

func TestDelete_CounterFloorsAtZero(t *testing.T) {
	h := newHarness(t, listings.Config{})
	// A listing that was never counted, e.g. imported before counters existed.
	p := &models.Property{Title: "Legacy", OwnerID: "a1", CreatedByID: "a1", IsPublic: true}
	if _, err := h.listings.Insert(ctx(), p); err != nil {
		t.Fatal(err)
	}

	if err := h.svc.Delete(ctx(), agent("a1"), p.ID.Hex()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 0 {
		t.Errorf("counter: got %d, want 0", got)
	}
}

func TestDelete_Forbidden(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "Keep"})

	if err := h.svc.Delete(ctx(), buyer("b1"), p.ID.Hex()); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("got %v, want forbidden", err)
	}
	if h.listings.Len() != 1 {
		t.Error("listing must survive a forbidden delete")
	}
	if got := h.stats.Get("a1", models.StatPropertiesPosted); got != 1 {
		t.Errorf("counter: got %d, want 1", got)
	}
}

func TestDelete_CounterFailureStillDeletes(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "Gone"})
	h.stats.Fail = true

	if err := h.svc.Delete(ctx(), agent("a1"), p.ID.Hex()); err != nil {
		t.Fatalf("Delete should succeed: %v", err)
	}
	if h.listings.Len() != 0 {
		t.Error("listing should be deleted")
	}
	if got := promtest.ToFloat64(h.metrics.CounterDrift.WithLabelValues("delete")); got != 1 {
		t.Errorf("drift metric: got %v, want 1", got)
	}
}

func TestView_OwnerFieldVisibility(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "Visible"})
	id := p.ID.Hex()

	tests := []struct {
		name         string
		user         *models.User
		includeOwner bool
		wantOwner    bool
	}{
		{"anonymous", nil, false, false},
		{"anonymous include_owner", nil, true, true},
		{"buyer", buyer("b1"), false, false},
		{"owner", agent("a1"), false, true},
		{"staff", staff("s1"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := h.svc.View(ctx(), id, tt.user, tt.includeOwner)
			if err != nil {
				t.Fatalf("View: %v", err)
			}
			if (v.OwnerID != nil) != tt.wantOwner || (v.ContactInfo != nil) != tt.wantOwner {
				t.Errorf("owner fields shown = %v, want %v", v.OwnerID != nil, tt.wantOwner)
			}
			if v.ID != id || v.MongoID != id {
				t.Errorf("id fields: %q / %q", v.ID, v.MongoID)
			}
		})
	}
}

func TestView_PrivateListing(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "Hidden", "is_public": false})
	id := p.ID.Hex()

	if _, err := h.svc.View(ctx(), id, buyer("b1"), true); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("buyer: got %v, want not found", err)
	}
	if _, err := h.svc.View(ctx(), id, nil, false); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("anonymous: got %v, want not found", err)
	}
	if _, err := h.svc.View(ctx(), id, agent("a1"), false); err != nil {
		t.Errorf("owner: %v", err)
	}
	if _, err := h.svc.View(ctx(), id, staff("s1"), false); err != nil {
		t.Errorf("staff: %v", err)
	}
}

func TestCreateThenView_RoundTrips(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")
	p := mustCreate(t, h, a, formutil.Payload{
		"title":         "Round Trip",
		"description":   "All fields",
		"property_type": "condo",
		"status":        "rent",
		"price":         json.Number("2100.5"),
		"bedrooms":      json.Number("2"),
		"bathrooms":     json.Number("1"),
		"area":          json.Number("850"),
		"address":       "1 Main St",
		"city":          "Austin",
		"state":         "TX",
		"zip_code":      "73301",
		"latitude":      json.Number("30.27"),
		"longitude":     json.Number("-97.74"),
		"image":         "https://img.example.com/1.jpg",
		"featured":      true,
		"is_public":     true,
	})

	v, err := h.svc.View(ctx(), p.ID.Hex(), a, false)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	checks := []struct {
		name      string
		got, want any
	}{
		{"title", v.Title, "Round Trip"},
		{"description", v.Description, "All fields"},
		{"property_type", v.PropertyType, "condo"},
		{"status", v.Status, "rent"},
		{"price", v.Price, 2100.5},
		{"bedrooms", v.Bedrooms, 2},
		{"bathrooms", v.Bathrooms, 1},
		{"area", v.Area, 850},
		{"address", v.Address, "1 Main St"},
		{"city", v.City, "Austin"},
		{"state", v.State, "TX"},
		{"zip_code", v.ZipCode, "73301"},
		{"latitude", v.Latitude, 30.27},
		{"longitude", v.Longitude, -97.74},
		{"image", v.Image, "https://img.example.com/1.jpg"},
		{"featured", v.Featured, true},
		{"is_public", v.IsPublic, true},
		{"owner_id", *v.OwnerID, "a1"},
		{"created_by_id", *v.CreatedByID, "a1"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestCreateThenView_FreeTextUnchanged(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")
	submitted := map[string]string{
		"title":       "3 < 4 bedrooms & a yard",
		"description": "Budget<500k, near Main St park",
		"address":     "  12 Elm St  ",
		"city":        "A&amp;B Town",
		"state":       "TX ",
		"zip_code":    " 73301",
	}
	payload := formutil.Payload{}
	for k, v := range submitted {
		payload[k] = v
	}
	p := mustCreate(t, h, a, payload)

	v, err := h.svc.View(ctx(), p.ID.Hex(), a, false)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	viewed := map[string]string{
		"title": v.Title, "description": v.Description, "address": v.Address,
		"city": v.City, "state": v.State, "zip_code": v.ZipCode,
	}
	for field, want := range submitted {
		if viewed[field] != want {
			t.Errorf("%s: submitted %q, viewed %q", field, want, viewed[field])
		}
	}
}

func TestCreate_RejectsMarkup(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")

	tests := []struct {
		name    string
		payload formutil.Payload
		field   string
	}{
		{"tag in title", formutil.Payload{"title": "Unit<B> corner lot"}, "title"},
		{"script in description", formutil.Payload{"title": "X", "description": "<script>alert(1)</script>"}, "description"},
		{"comment in city", formutil.Payload{"title": "X", "city": "Austin<!-- x -->"}, "city"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx(), a, tt.payload)
			var e *apierr.Error
			if !errors.As(err, &e) || e.Kind != apierr.KindValidation {
				t.Fatalf("got %v, want validation error", err)
			}
			if e.Field != tt.field {
				t.Errorf("field: got %q, want %q", e.Field, tt.field)
			}
		})
	}
	if h.listings.Len() != 0 {
		t.Error("rejected payloads must not be stored")
	}

	p := mustCreate(t, h, a, formutil.Payload{"title": "Plain"})
	_, err := h.svc.Update(ctx(), a, p.ID.Hex(), formutil.Payload{"title": "<i>Fancy</i>"})
	if !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("update with markup: got %v, want validation error", err)
	}
}

func seedForList(t *testing.T, h *harness) {
	t.Helper()
	a := agent("a1")
	for _, pl := range []formutil.Payload{
		{"title": "Downtown Loft", "city": "Chicago", "status": "rent", "price": json.Number("2500"), "area": json.Number("900")},
		{"title": "Suburban House", "city": "Naperville", "status": "sale", "price": json.Number("450000"), "featured": true, "area": json.Number("2400")},
		{"title": "Farm Land", "property_type": "land", "state": "IL", "status": "sale", "price": json.Number("90000"), "area": json.Number("50000")},
		{"title": "Private Condo", "property_type": "condo", "status": "sale", "price": json.Number("300000"), "is_public": false},
	} {
		mustCreate(t, h, a, pl)
	}
}

func titles(vs []listings.PropertyView) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Title)
	}
	return out
}

func TestList_FiltersAndDefaultSort(t *testing.T) {
	h := newHarness(t, listings.Config{})
	seedForList(t, h)

	got, err := h.svc.List(ctx(), listings.ListParams{}, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"Farm Land", "Suburban House", "Downtown Loft"}
	if gt := titles(got); len(gt) != 3 || gt[0] != want[0] || gt[1] != want[1] || gt[2] != want[2] {
		t.Errorf("default order (newest first, public only): got %v, want %v", gt, want)
	}
	for _, v := range got {
		if v.OwnerID == nil {
			t.Error("list views always include owner fields")
		}
	}

	got, _ = h.svc.List(ctx(), listings.ListParams{Status: "sale"}, nil)
	if len(got) != 2 {
		t.Errorf("status=sale: got %v", titles(got))
	}

	got, _ = h.svc.List(ctx(), listings.ListParams{Featured: true}, nil)
	if len(got) != 1 || got[0].Title != "Suburban House" {
		t.Errorf("featured: got %v", titles(got))
	}

	lo, hi := 50000.0, 500000.0
	got, _ = h.svc.List(ctx(), listings.ListParams{MinPrice: &lo, MaxPrice: &hi, Ordering: "price"}, nil)
	if gt := titles(got); len(gt) != 2 || gt[0] != "Farm Land" || gt[1] != "Suburban House" {
		t.Errorf("price range ascending: got %v", gt)
	}

	got, _ = h.svc.List(ctx(), listings.ListParams{Ordering: "-area", Limit: 1}, nil)
	if len(got) != 1 || got[0].Title != "Farm Land" {
		t.Errorf("-area limit 1: got %v", titles(got))
	}
}

func TestList_StaffSeesPrivate(t *testing.T) {
	h := newHarness(t, listings.Config{})
	seedForList(t, h)

	got, _ := h.svc.List(ctx(), listings.ListParams{}, staff("s1"))
	if len(got) != 4 {
		t.Errorf("staff list: got %d listings, want 4", len(got))
	}
	if _, ok := h.listings.LastFilter["is_public"]; ok {
		t.Error("staff queries must not carry the public-only clause")
	}
}

func TestList_SearchIgnoresSortAndFilters(t *testing.T) {
	h := newHarness(t, listings.Config{})
	seedForList(t, h)

	lo := 1_000_000.0
	got, err := h.svc.List(ctx(), listings.ListParams{
		Search:   "chicago",
		Featured: true,
		MinPrice: &lo,
		Status:   "sale",
		Ordering: "-price",
	}, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Downtown Loft" {
		t.Errorf("search: got %v, want [Downtown Loft]", titles(got))
	}

	if h.listings.LastSort != nil {
		t.Errorf("search mode must not sort, got %v", h.listings.LastSort)
	}
	for _, k := range []string{"featured", "price", "status", "property_type"} {
		if _, ok := h.listings.LastFilter[k]; ok {
			t.Errorf("search mode filter must not contain %q: %v", k, h.listings.LastFilter)
		}
	}
	if _, ok := h.listings.LastFilter["$or"]; !ok {
		t.Error("search mode filter must contain $or")
	}
}

func TestList_SearchMatchesAllTextFields(t *testing.T) {
	h := newHarness(t, listings.Config{})
	seedForList(t, h)

	tests := []struct {
		term string
		want int
	}{
		{"LOFT", 1},    // title, case-insensitive
		{"naper", 1},   // city
		{"il", 2},      // state "IL" and "Naperville"
		{"a.b", 0},     // metacharacters are literal
		{"(", 0},       // unbalanced paren must not break the query
		{"private", 0}, // private listings stay hidden from anonymous users
	}
	for _, tt := range tests {
		got, err := h.svc.List(ctx(), listings.ListParams{Search: tt.term}, nil)
		if err != nil {
			t.Fatalf("List(%q): %v", tt.term, err)
		}
		if len(got) != tt.want {
			t.Errorf("search %q: got %v, want %d results", tt.term, titles(got), tt.want)
		}
	}
}

func TestList_SortPolicy(t *testing.T) {
	tests := []struct {
		policy   ordering.Policy
		wantErr  bool
		wantSort bson.D
	}{
		{ordering.Passthrough, false, bson.D{{Key: "bedrooms", Value: -1}}},
		{ordering.Ignore, false, bson.D{{Key: "created_at", Value: -1}}},
		{ordering.Reject, true, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			h := newHarness(t, listings.Config{SortPolicy: tt.policy})
			_, err := h.svc.List(ctx(), listings.ListParams{Ordering: "-bedrooms"}, nil)
			if tt.wantErr {
				if !errors.Is(err, apierr.ErrValidation) {
					t.Errorf("got %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			got := h.listings.LastSort
			if len(got) != 1 || got[0].Key != tt.wantSort[0].Key || got[0].Value != tt.wantSort[0].Value {
				t.Errorf("sort: got %v, want %v", got, tt.wantSort)
			}
		})
	}
}

func TestList_Limit(t *testing.T) {
	h := newHarness(t, listings.Config{MaxLimit: 2})
	seedForList(t, h)

	got, _ := h.svc.List(ctx(), listings.ListParams{}, staff("s1"))
	if len(got) != 2 {
		t.Errorf("capped list: got %d, want 2", len(got))
	}
	if _, err := h.svc.List(ctx(), listings.ListParams{Limit: -1}, nil); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("negative limit: got %v, want validation", err)
	}
}

func TestListByOwner(t *testing.T) {
	h := newHarness(t, listings.Config{})
	seedForList(t, h)
	mustCreate(t, h, agent("a2"), formutil.Payload{"title": "Someone else's"})

	got, err := h.svc.ListByOwner(ctx(), agent("a1"))
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("own listings incl. private: got %d, want 4", len(got))
	}
	if _, err := h.svc.ListByOwner(ctx(), nil); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Errorf("anonymous: got %v, want unauthorized", err)
	}
}

func TestStats(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a := agent("a1")
	mustCreate(t, h, a, formutil.Payload{"title": "S1", "status": "sale", "featured": true})
	mustCreate(t, h, a, formutil.Payload{"title": "S2", "status": "sale"})
	mustCreate(t, h, a, formutil.Payload{"title": "R1", "status": "rent"})

	st, err := h.svc.Stats(ctx())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := listings.Stats{TotalProperties: 3, ForSale: 2, ForRent: 1, Featured: 1}
	if st != want {
		t.Errorf("Stats: got %+v, want %+v", st, want)
	}
}

func TestAttachImage(t *testing.T) {
	h := newHarness(t, listings.Config{})
	p := mustCreate(t, h, agent("a1"), formutil.Payload{"title": "Pic"})

	if err := h.svc.Authorize(ctx(), buyer("b1"), p.ID.Hex()); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("Authorize(buyer): got %v, want forbidden", err)
	}
	got, err := h.svc.AttachImage(ctx(), agent("a1"), p.ID.Hex(), "https://cdn.example.com/p.jpg")
	if err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	if got.Image != "https://cdn.example.com/p.jpg" {
		t.Errorf("image: got %q", got.Image)
	}
	stored, _ := h.listings.FindByID(ctx(), p.ID)
	if stored.Image != got.Image {
		t.Errorf("stored image: got %q", stored.Image)
	}
}

// Agent A creates a listing, buyer B cannot touch it, A updates the price,
// A deletes it, the counter returns to zero and the listing is gone.
func TestScenario_AgentAndBuyer(t *testing.T) {
	h := newHarness(t, listings.Config{})
	a, b := agent("A"), buyer("B")

	p := mustCreate(t, h, a, formutil.Payload{"title": "Family Home", "price": json.Number("400000")})
	if got := h.stats.Get("A", models.StatPropertiesPosted); got != 1 {
		t.Fatalf("after create: counter %d, want 1", got)
	}

	if _, err := h.svc.Update(ctx(), b, p.ID.Hex(), formutil.Payload{"price": json.Number("1")}); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("buyer update: got %v, want forbidden", err)
	}
	if err := h.svc.Delete(ctx(), b, p.ID.Hex()); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("buyer delete: got %v, want forbidden", err)
	}

	upd, err := h.svc.Update(ctx(), a, p.ID.Hex(), formutil.Payload{"price": json.Number("380000")})
	if err != nil || upd.Price != 380000 {
		t.Fatalf("agent update: price=%v err=%v", upd, err)
	}

	if err := h.svc.Delete(ctx(), a, p.ID.Hex()); err != nil {
		t.Fatalf("agent delete: %v", err)
	}
	if got := h.stats.Get("A", models.StatPropertiesPosted); got != 0 {
		t.Errorf("after delete: counter %d, want 0", got)
	}
	if _, err := h.svc.View(ctx(), p.ID.Hex(), a, false); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("view after delete: got %v, want not found", err)
	}
}
