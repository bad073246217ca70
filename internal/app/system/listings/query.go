package listings

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/policy/listingpolicy"
	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/ordering"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// PropertyView is the JSON shape of a listing. The ownership fields are nil
// (and omitted) unless the caller may see them.
type PropertyView struct {
	ID           string  `json:"id"`
	MongoID      string  `json:"_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	PropertyType string  `json:"property_type"`
	Status       string  `json:"status"`
	Price        float64 `json:"price"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	Area         int     `json:"area"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zip_code"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Image        string  `json:"image"`
	Featured     bool    `json:"featured"`
	IsPublic     bool    `json:"is_public"`

	OwnerID     *string             `json:"owner_id,omitempty"`
	CreatedByID *string             `json:"created_by_id,omitempty"`
	ContactInfo *models.ContactInfo `json:"contact_info,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewView renders p, including the ownership fields when showOwner is set.
func NewView(p *models.Property, showOwner bool) PropertyView {
	v := PropertyView{
		ID:           p.ID.Hex(),
		MongoID:      p.ID.Hex(),
		Title:        p.Title,
		Description:  p.Description,
		PropertyType: p.PropertyType,
		Status:       p.Status,
		Price:        p.Price,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Area:         p.Area,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		ZipCode:      p.ZipCode,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Image:        p.Image,
		Featured:     p.Featured,
		IsPublic:     p.IsPublic,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if showOwner {
		owner, creator, contact := p.OwnerID, p.CreatedByID, p.ContactInfo
		v.OwnerID = &owner
		v.CreatedByID = &creator
		v.ContactInfo = &contact
	}
	return v
}

// ListParams are the user-supplied list filters.
type ListParams struct {
	PropertyType string
	Status       string
	// Featured filters to featured listings when true; false means no filter.
	Featured bool
	MinPrice *float64
	MaxPrice *float64
	// Search switches the query to free-text mode. Sort and the other
	// filters are then ignored.
	Search   string
	Ordering string
	Limit    int64
}

// Stats are the site-wide listing counts.
type Stats struct {
	TotalProperties int64 `json:"total_properties"`
	ForSale         int64 `json:"for_sale"`
	ForRent         int64 `json:"for_rent"`
	Featured        int64 `json:"featured"`
}

// View returns a single listing. Non-public listings are reported as not
// found to everyone except the owner, the creator and staff.
func (s *Service) View(ctx context.Context, id string, requester *models.User, includeOwner bool) (PropertyView, error) {
	oid, ok := parseID(id)
	if !ok {
		return PropertyView{}, apierr.NotFound("property not found")
	}
	p, err := s.listings.FindByID(ctx, oid)
	if err != nil {
		return PropertyView{}, fmt.Errorf("load listing: %w", err)
	}
	if p == nil || !listingpolicy.CanSee(requester, p) {
		return PropertyView{}, apierr.NotFound("property not found")
	}
	return NewView(p, listingpolicy.ShowOwnerFields(requester, p, includeOwner)), nil
}

// List returns the listings matching params. List views always include the
// ownership fields.
func (s *Service) List(ctx context.Context, params ListParams, requester *models.User) ([]PropertyView, error) {
	filter, sort, err := s.buildQuery(params, requester)
	if err != nil {
		return nil, err
	}
	limit, err := s.limit(params.Limit)
	if err != nil {
		return nil, err
	}

	props, err := s.listings.FindAll(ctx, filter, sort, limit)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return views(props), nil
}

// ListByOwner returns the caller's own listings, newest first, including
// private ones.
func (s *Service) ListByOwner(ctx context.Context, user *models.User) ([]PropertyView, error) {
	if user == nil {
		return nil, apierr.Unauthorized("authentication credentials were not provided")
	}
	sort, _ := ordering.Parse(ordering.Default, ordering.Passthrough)
	props, err := s.listings.FindAll(ctx, bson.M{"owner_id": user.ID}, sort, 0)
	if err != nil {
		return nil, fmt.Errorf("list own listings: %w", err)
	}
	return views(props), nil
}

// Stats counts all listings, those for sale, those for rent and featured ones.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		filter bson.M
		dst    *int64
	}{
		{bson.M{}, &st.TotalProperties},
		{bson.M{"status": models.StatusSale}, &st.ForSale},
		{bson.M{"status": models.StatusRent}, &st.ForRent},
		{bson.M{"featured": true}, &st.Featured},
	}
	for _, c := range counts {
		n, err := s.listings.Count(ctx, c.filter)
		if err != nil {
			return Stats{}, fmt.Errorf("count listings: %w", err)
		}
		*c.dst = n
	}
	return st, nil
}

// buildQuery turns params into a filter and sort. In search mode the
// filter is only the text match and the sort is nil. The public-only
// clause for non-staff callers applies in both modes.
func (s *Service) buildQuery(params ListParams, requester *models.User) (bson.M, bson.D, error) {
	filter := bson.M{}
	var sort bson.D

	if term := strings.TrimSpace(params.Search); term != "" {
		pattern := regexp.QuoteMeta(term)
		or := bson.A{}
		for _, f := range []string{"title", "description", "city", "state"} {
			or = append(or, bson.M{f: bson.M{"$regex": pattern, "$options": "i"}})
		}
		filter["$or"] = or
	} else {
		if params.PropertyType != "" {
			filter["property_type"] = params.PropertyType
		}
		if params.Status != "" {
			filter["status"] = params.Status
		}
		if params.Featured {
			filter["featured"] = true
		}
		if params.MinPrice != nil || params.MaxPrice != nil {
			price := bson.M{}
			if params.MinPrice != nil {
				price["$gte"] = *params.MinPrice
			}
			if params.MaxPrice != nil {
				price["$lte"] = *params.MaxPrice
			}
			filter["price"] = price
		}

		var err error
		sort, err = ordering.Parse(params.Ordering, s.cfg.SortPolicy)
		if err != nil {
			return nil, nil, err
		}
	}

	if !listingpolicy.SeesPrivateListings(requester) {
		filter["is_public"] = bson.M{"$ne": false}
	}
	return filter, sort, nil
}

func (s *Service) limit(n int64) (int64, error) {
	if n < 0 {
		return 0, apierr.Validation("limit", "must not be negative")
	}
	if s.cfg.MaxLimit > 0 && (n == 0 || n > s.cfg.MaxLimit) {
		return s.cfg.MaxLimit, nil
	}
	return n, nil
}

func views(props []models.Property) []PropertyView {
	out := make([]PropertyView, 0, len(props))
	for i := range props {
		out = append(out, NewView(&props[i], true))
	}
	return out
}
